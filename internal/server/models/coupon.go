package models

import (
	"fmt"
	"strconv"
	"time"
)

// CouponClass is a reward tier. Each class has its own stock pool and point
// cost.
type CouponClass string

const (
	Class500  CouponClass = "500"
	Class1000 CouponClass = "1000"
	Class2000 CouponClass = "2000"
	Class4000 CouponClass = "4000"
)

type classInfo struct {
	label       string
	defaultCost int
}

var classTable = map[CouponClass]classInfo{
	Class500:  {label: "500 off 500", defaultCost: 3},
	Class1000: {label: "1000 off 1000", defaultCost: 10},
	Class2000: {label: "2000 off 2000", defaultCost: 25},
	Class4000: {label: "4000 off 4000", defaultCost: 40},
}

// CouponClasses lists every class in display order.
func CouponClasses() []CouponClass {
	return []CouponClass{Class500, Class1000, Class2000, Class4000}
}

// ParseCouponClass validates s against the closed set of classes.
func ParseCouponClass(s string) (CouponClass, error) {
	c := CouponClass(s)
	if _, ok := classTable[c]; !ok {
		return "", fmt.Errorf("unknown coupon class %q", s)
	}
	return c, nil
}

func (c CouponClass) Valid() bool {
	_, ok := classTable[c]
	return ok
}

// Label is the human readable name of the class, e.g. "500 off 500".
func (c CouponClass) Label() string {
	if info, ok := classTable[c]; ok {
		return info.label
	}
	return string(c)
}

// DefaultCost is the point cost used when no cost has been configured.
func (c CouponClass) DefaultCost() int {
	return classTable[c].defaultCost
}

// Coupon is a single-use redeemable code.
type Coupon struct {
	ID        int64
	Class     CouponClass
	Code      string
	Used      bool
	UsedBy    *int64
	UsedAt    *time.Time
	CreatedAt time.Time
}

// StockCounts maps each class to its number of unused coupons.
type StockCounts map[CouponClass]int

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
