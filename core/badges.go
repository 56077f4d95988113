package core

// Badge is a named achievement with a pure predicate over the progress
// record. Predicates must not mutate the record; unlocking is handled by the
// engine and is monotonic and idempotent.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`

	Condition func(ProgressRecord) bool `json:"-"`
}

// Well-known badge IDs from the default catalog.
const (
	BadgeFirstSteps      = "first_steps"
	BadgeBeachExplorer   = "beach_explorer"
	BadgeMountainClimber = "mountain_climber"
	BadgeWildlifeSpotter = "wildlife_spotter"
	BadgePhotographer    = "photographer"
	BadgeHistoryBuff     = "history_buff"
	BadgeAdventureSeeker = "adventure_seeker"
	BadgeNightOwl        = "night_owl"
	BadgeEarlyBird       = "early_bird"
	BadgeMapMaster       = "map_master"
	BadgePassportPro     = "passport_pro"
	BadgeCompletionist   = "completionist"
)

// DefaultCatalog builds the standard twelve-badge catalog.
//
// totalDestinations is the catalog size the passport_pro threshold is
// computed against; it is deliberately a parameter rather than a literal so
// deployments can keep it in sync with their destination list.
//
// The completionist meta-badge closes over the other catalog IDs instead of
// referencing the catalog at evaluation time, so the table stays declarative.
func DefaultCatalog(totalDestinations int) []Badge {
	if totalDestinations <= 0 {
		totalDestinations = 15
	}

	beachPages := []string{"beaches", "los-roques", "morrocoy", "coche"}

	catalog := []Badge{
		{
			ID:          BadgeFirstSteps,
			Name:        "First Steps",
			Icon:        "👣",
			Description: "Visit your first destination",
			Condition: func(r ProgressRecord) bool {
				return len(r.PlacesVisited) >= 1
			},
		},
		{
			ID:          BadgeBeachExplorer,
			Name:        "Beach Explorer",
			Icon:        "🌊",
			Description: "Visit all beach pages",
			Condition: func(r ProgressRecord) bool {
				for _, page := range beachPages {
					if !r.HasVisited(page) {
						return false
					}
				}
				return true
			},
		},
		{
			ID:          BadgeMountainClimber,
			Name:        "Mountain Climber",
			Icon:        "🏔️",
			Description: "Visit Angel Falls and Roraima pages",
			Condition: func(r ProgressRecord) bool {
				return r.HasVisited("angel-falls") && r.HasVisited("roraima")
			},
		},
		{
			ID:          BadgeWildlifeSpotter,
			Name:        "Wildlife Spotter",
			Icon:        "🦜",
			Description: "Discover 5 animals/wildlife mentions",
			Condition: func(r ProgressRecord) bool {
				return r.WildlifeSpotted >= 5
			},
		},
		{
			ID:          BadgePhotographer,
			Name:        "Photographer",
			Icon:        "📸",
			Description: "View 10 destination images",
			Condition: func(r ProgressRecord) bool {
				return r.ImagesViewed >= 10
			},
		},
		{
			ID:          BadgeHistoryBuff,
			Name:        "History Buff",
			Icon:        "📚",
			Description: "Read about local culture",
			Condition: func(r ProgressRecord) bool {
				return r.CultureRead
			},
		},
		{
			ID:          BadgeAdventureSeeker,
			Name:        "Adventure Seeker",
			Icon:        "🗺️",
			Description: "Explore 8+ destinations",
			Condition: func(r ProgressRecord) bool {
				return len(r.PlacesVisited) >= 8
			},
		},
		{
			ID:          BadgeNightOwl,
			Name:        "Night Owl",
			Icon:        "🦉",
			Description: "Visit after 8 PM",
			Condition: func(r ProgressRecord) bool {
				return r.NightVisits >= 1
			},
		},
		{
			ID:          BadgeEarlyBird,
			Name:        "Early Bird",
			Icon:        "🐦",
			Description: "Visit before 8 AM",
			Condition: func(r ProgressRecord) bool {
				return r.EarlyVisits >= 1
			},
		},
		{
			ID:          BadgeMapMaster,
			Name:        "Map Master",
			Icon:        "🧭",
			Description: "Use the interactive map",
			Condition: func(r ProgressRecord) bool {
				return r.MapUsed
			},
		},
		{
			ID:          BadgePassportPro,
			Name:        "Passport Pro",
			Icon:        "🛂",
			Description: "Fill 50% of your passport",
			Condition: func(r ProgressRecord) bool {
				return float64(len(r.PlacesVisited)) >= float64(totalDestinations)*0.5
			},
		},
	}

	others := make([]string, 0, len(catalog))
	for _, b := range catalog {
		others = append(others, b.ID)
	}
	catalog = append(catalog, Badge{
		ID:          BadgeCompletionist,
		Name:        "Completionist",
		Icon:        "👑",
		Description: "Earn all other badges",
		Condition: func(r ProgressRecord) bool {
			for _, id := range others {
				if !r.HasBadge(id) {
					return false
				}
			}
			return true
		},
	})

	return catalog
}
