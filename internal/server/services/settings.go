package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
)

// ChannelSlots is the fixed length of the force-join channel list.
const ChannelSlots = 5

// DefaultChannels is used until an admin stores a channel list.
func DefaultChannels() []string {
	return []string{"@channel1", "@channel2", "@channel3", "@channel4", "@channel5"}
}

// DefaultCosts is used for every class without a stored cost.
func DefaultCosts() models.CostTable {
	t := make(models.CostTable, 4)
	for _, c := range models.CouponClasses() {
		t[c] = c.DefaultCost()
	}
	return t
}

// SettingsService reads and writes the channel list and the point costs.
// Values are read from the store on every call; nothing is cached.
type SettingsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSettingsService(db *sql.DB, m repomanager.RepositoryManager) *SettingsService {
	return &SettingsService{db: db, repomanager: m}
}

// Channels returns exactly ChannelSlots entries, padded with blanks. A
// missing or malformed stored value yields the defaults.
func (s *SettingsService) Channels(ctx context.Context) ([]string, error) {
	st, err := s.repomanager.Settings(s.db).Get(ctx, models.SettingChannels)
	if errors.Is(err, common.ErrorNotFound) {
		return DefaultChannels(), nil
	}
	if err != nil {
		return nil, common.StoreError("load channels", err)
	}

	dec := json.NewDecoder(bytes.NewReader(st.Value))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return DefaultChannels(), nil
	}

	out := make([]string, 0, ChannelSlots)
	for _, v := range raw {
		switch x := v.(type) {
		case string:
			out = append(out, x)
		case json.Number:
			out = append(out, x.String())
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	return fitChannels(out), nil
}

// SetChannels stores the list after normalising each entry. Blank entries
// are kept as empty slots.
func (s *SettingsService) SetChannels(ctx context.Context, channels []string) error {
	norm := make([]string, 0, len(channels))
	for _, ch := range channels {
		norm = append(norm, NormalizeChannel(ch))
	}
	value, err := json.Marshal(fitChannels(norm))
	if err != nil {
		return err
	}
	if _, err := s.repomanager.Settings(s.db).Put(ctx, models.SettingChannels, value); err != nil {
		return common.StoreError("save channels", err)
	}
	return nil
}

// Costs returns the point cost of every class, merging stored values over
// the defaults.
func (s *SettingsService) Costs(ctx context.Context) (models.CostTable, error) {
	costs := DefaultCosts()

	st, err := s.repomanager.Settings(s.db).Get(ctx, models.SettingRedeemRules)
	if errors.Is(err, common.ErrorNotFound) {
		return costs, nil
	}
	if err != nil {
		return nil, common.StoreError("load costs", err)
	}

	var rules map[string]map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(st.Value))
	dec.UseNumber()
	if err := dec.Decode(&rules); err != nil {
		return costs, nil
	}
	for _, c := range models.CouponClasses() {
		n, ok := rules[string(c)]["points"]
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(n.String()); err == nil && v >= 0 {
			costs[c] = v
		}
	}
	return costs, nil
}

func (s *SettingsService) Cost(ctx context.Context, class models.CouponClass) (int, error) {
	if !class.Valid() {
		return 0, common.ErrInvalidInput
	}
	costs, err := s.Costs(ctx)
	if err != nil {
		return 0, err
	}
	return costs[class], nil
}

// SetCost changes the cost of one class without touching the others.
func (s *SettingsService) SetCost(ctx context.Context, class models.CouponClass, points int) error {
	if !class.Valid() || points < 0 {
		return common.ErrInvalidInput
	}
	patch, err := json.Marshal(map[string]map[string]int{string(class): {"points": points}})
	if err != nil {
		return err
	}
	if _, err := s.repomanager.Settings(s.db).Merge(ctx, models.SettingRedeemRules, patch); err != nil {
		return common.StoreError("save cost", err)
	}
	return nil
}

// NormalizeChannel trims ch and prefixes public channel names with '@'.
// Numeric chat ids and blanks are returned trimmed.
func NormalizeChannel(ch string) string {
	ch = strings.TrimSpace(ch)
	if ch == "" || strings.HasPrefix(ch, "@") {
		return ch
	}
	if _, err := strconv.ParseInt(ch, 10, 64); err == nil {
		return ch
	}
	return "@" + ch
}

func fitChannels(in []string) []string {
	out := make([]string, ChannelSlots)
	copy(out, in)
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}
