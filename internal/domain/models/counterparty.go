package models

// CounterParty is the other side of a trade. Trades carry the counterparty
// name by value, so the table is only needed while generating.
type CounterParty struct {
	Id      int32
	Name    string
	Group   string
	Sector  string
	Country string
	Rating  string
}
