package storage

// ActivityOverlay is static default data merged onto activities at read time.
type ActivityOverlay struct {
	Hide bool
}

// DefaultActivityOverlay is keyed by activity id. Activities that are still
// scored but should not be surfaced in user-facing breakdowns are hidden here.
var DefaultActivityOverlay = map[string]ActivityOverlay{
	"legacy_bridge_volume": {Hide: true},
	"testnet_faucet_claim": {Hide: true},
}

func ApplyActivityOverlay(activities []*Activity, overlay map[string]ActivityOverlay) []*Activity {
	for _, a := range activities {
		if o, ok := overlay[a.Id]; ok {
			a.Hide = o.Hide
		}
	}
	return activities
}
