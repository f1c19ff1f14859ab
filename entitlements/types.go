package entitlements

// Record asserts that an external game account purchased a product.
// JSON field names match the persisted vipPlayers.json layout.
type Record struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	GamePass string `json:"gamePass"`
}

// Key is the uniqueness key of a Record.
type Key struct {
	UserID   string
	GamePass string
}

func (r Record) Key() Key { return Key{UserID: r.UserID, GamePass: r.GamePass} }

// Result reports what an upsert did. Record is the stored state after the call,
// which keeps the first-seen username unless the store updates on duplicates.
type Result struct {
	Created bool
	Updated bool
	Record  Record
}

// Changed reports whether the upsert persisted anything.
func (r Result) Changed() bool { return r.Created || r.Updated }
