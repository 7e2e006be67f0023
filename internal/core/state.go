package core

// Utilities groups the utility payments and the two meter-reading
// ledgers.
type Utilities struct {
	Payments    PaymentLedger `json:"payments"`
	Electricity ReadingLedger `json:"electricity"`
	Gas         ReadingLedger `json:"gas"`

	// LegacyReadings is the pre-split field that held electricity
	// readings before gas tracking existed. Normalize migrates it.
	LegacyReadings []Reading `json:"readings,omitempty"`
}

// Administration groups HOA payments and water metering.
type Administration struct {
	Payments  PaymentLedger `json:"payments"`
	Water     WaterLedger   `json:"water"`
	CostPerM3 float64       `json:"cost_per_m3"`
}

// State is the whole application dataset. The tracker owns the single
// live instance; stores move it to and from persistence as JSON.
type State struct {
	Monthly        ServiceLedger     `json:"monthly"`
	Annual         ServiceLedger     `json:"annual"`
	Utilities      Utilities         `json:"utilities"`
	Administration Administration    `json:"administration"`
	Daily          TransactionLedger `json:"daily"`
	Car            TransactionLedger `json:"car"`
	Language       string            `json:"language"`
}

// NewState returns the seeded default dataset.
func NewState() *State {
	s := &State{
		Monthly: ServiceLedger{Entries: []ServiceEntry{
			{Kind: KindCategory, Name: "Utilitati"},
			{Kind: KindService, Name: "Internet si TV", Cost: 66, Currency: RON, Active: true},
			{Kind: KindCategory, Name: "Servicii online"},
			{Kind: KindService, Name: "Google Drive", Cost: 10, Currency: RON, Active: true},
			{Kind: KindService, Name: "Youtube Premium", Cost: 29, Currency: RON, Active: true},
			{Kind: KindService, Name: "Amazon Prime", Cost: 20, Currency: RON, Active: true},
			{Kind: KindService, Name: "Spotify", Cost: 24, Currency: RON, Active: true},
			{Kind: KindService, Name: "Netflix", Cost: 56, Currency: RON, Active: true},
			{Kind: KindService, Name: "Disney Plus", Cost: 45, Currency: RON, Active: true},
			{Kind: KindService, Name: "HBO Max", Cost: 15, Currency: RON, Active: true},
			{Kind: KindService, Name: "GeoGuesser", Cost: 15, Currency: RON, Active: true},
			{Kind: KindService, Name: "Audiable", Cost: 48, Currency: RON, Active: true},
			{Kind: KindService, Name: "Microsoft", Cost: 48, Currency: RON, Active: true},
			{Kind: KindCategory, Name: "Consumabile"},
		}},
		Annual: ServiceLedger{Entries: []ServiceEntry{
			{Kind: KindCategory, Name: "Abonamente"},
			{Kind: KindService, Name: "Bitdefender", Cost: 330, Currency: RON, Active: true},
			{Kind: KindService, Name: "Sala", Cost: 1700, Currency: RON, Active: true},
			{Kind: KindService, Name: "Genius", Cost: 99, Currency: RON, Active: true},
		}},
		Administration: Administration{CostPerM3: 10},
		Language:       "ro",
	}
	return s
}

// Normalize repairs a freshly decoded state: defaults for absent fields,
// legacy field migration, and ID counter re-seeding. Stores call it
// after every load.
func (s *State) Normalize() {
	if len(s.Utilities.LegacyReadings) > 0 && len(s.Utilities.Electricity.Readings) == 0 {
		s.Utilities.Electricity.Readings = s.Utilities.LegacyReadings
	}
	s.Utilities.LegacyReadings = nil

	if s.Administration.CostPerM3 <= 0 {
		s.Administration.CostPerM3 = 10
	}
	if s.Language == "" {
		s.Language = "ro"
	}
	s.Daily.syncLastID()
	s.Car.syncLastID()
}
