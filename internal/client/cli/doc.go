// Package cli implements loyaltyctl, a line-oriented console for loyalty
// admins: stock and cost overview, redemption log, coupon import and the
// same settings wizard the chat front-end offers.
//
// Commands:
//
//	help                      list commands
//	ping                      check the server is reachable
//	overview                  channels, point costs and stock
//	recent [n]                latest redemptions (default 20)
//	add <class> <file>        add codes from a local file, one per line
//	upload <class> <file>     upload a file to object storage, then import it
//	remove <class> <n>        delete the n oldest unused coupons of a class
//	channels                  set the five force-join channels
//	points <class>            set the point cost of a class
//	codes <class>             paste codes interactively
//	cancel                    abandon a pending wizard step
//	exit | quit               leave
package cli
