// README: Batch cases for the CLI; each query carries the destination and length a good plan should have.
package main

type batchCase struct {
	Query string
	// Destinations lists acceptable names; a plan passes when its destination mentions any of them.
	Destinations []string
	Days         int
	Difficulty   string
}

// quickCases are cheap smoke queries for development.
var quickCases = []batchCase{
	{Query: "Weekend trip to Bangkok, budget $800", Destinations: []string{"Bangkok"}, Difficulty: "easy"},
	{Query: "5 days in Bali with my girlfriend, we love beaches and temples", Destinations: []string{"Bali"}, Days: 5, Difficulty: "easy"},
	{Query: "Business trip to Singapore, 3 days, need good hotels near CBD", Destinations: []string{"Singapore"}, Days: 3, Difficulty: "easy"},
}

var fullCases = []batchCase{
	{
		Query:        "I want a 5-day beach vacation in Thailand under $2000",
		Destinations: []string{"Thailand", "Phuket", "Krabi", "Koh Samui"},
		Days:         5,
		Difficulty:   "easy",
	},
	{
		Query:        "Plan a romantic week in Paris for two people. We love art museums and good food. Budget is around $5000. Preferably in spring.",
		Destinations: []string{"Paris"},
		Days:         7,
		Difficulty:   "medium",
	},
	{
		Query:        "Family trip to Japan for 4 people (2 adults, 2 kids aged 8 and 12). 10 days. Mix of Tokyo and Kyoto. Kids love anime and technology. We want cultural experiences too. Budget $8000. Must include Mt. Fuji.",
		Destinations: []string{"Japan", "Tokyo", "Kyoto"},
		Days:         10,
		Difficulty:   "hard",
	},
	{
		Query:        "Backpacking Southeast Asia for 3 weeks. I'm solo, love nature and hiking. Keep it cheap - maybe $1500 total including flights from NYC.",
		Destinations: []string{"Southeast Asia", "Thailand", "Vietnam", "Cambodia", "Laos"},
		Days:         21,
		Difficulty:   "medium",
	},
	{
		Query:        "Luxury honeymoon in Maldives. 7 nights. Best resorts. Water villas. Spa. Scuba diving. Money is not an issue.",
		Destinations: []string{"Maldives"},
		Days:         7,
		Difficulty:   "easy",
	},
	{
		Query:        "I want an adrenaline-packed trip to New Zealand. 2 weeks. Bungee jumping, skydiving, white water rafting. Also want to see Lord of the Rings locations. Budget $4000.",
		Destinations: []string{"New Zealand", "Queenstown"},
		Days:         14,
		Difficulty:   "medium",
	},
	{
		Query:        "Educational trip to Egypt for me and my teenage son. 10 days. Pyramids, museums, Nile cruise. He's studying ancient history. Budget $3500 for both of us.",
		Destinations: []string{"Egypt", "Cairo"},
		Days:         10,
		Difficulty:   "medium",
	},
	{
		Query:        "European city hopping - Barcelona, Rome, Amsterdam. 12 days total. Love architecture, nightlife, and local food. Solo traveler, $3000 budget.",
		Destinations: []string{"Europe", "Barcelona", "Rome", "Amsterdam"},
		Days:         12,
		Difficulty:   "hard",
	},
	{
		Query:        "I need a wellness retreat in Bali. Yoga, meditation, healthy food. 1 week. Looking for peace and relaxation. Budget around $2500.",
		Destinations: []string{"Bali", "Ubud"},
		Days:         7,
		Difficulty:   "easy",
	},
	{
		Query:        "Ski trip to Swiss Alps. Me and 3 friends. 5 days of skiing. Good nightlife too. Around $2000 per person.",
		Destinations: []string{"Swiss", "Switzerland", "Zermatt", "Verbier", "St. Moritz"},
		Days:         5,
		Difficulty:   "medium",
	},
}
