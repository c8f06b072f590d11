// Package tips holds the categorised travel tips.
package tips

import "strings"

type Category struct {
	Name string   `json:"name"`
	Icon string   `json:"icon"`
	Tips []string `json:"tips"`
}

var categories = []Category{
	{
		Name: "Safety & Security",
		Icon: "fa-shield-alt",
		Tips: []string{
			"Always keep copies of your important documents (passport, ID, visa).",
			"Share your itinerary with family or friends back home.",
			"Avoid walking alone at night in poorly lit or unfamiliar areas.",
			"Use a money belt or secure pouch for your cash, cards, and passport.",
			"Be wary of public Wi-Fi. Use a VPN for sensitive transactions.",
			"Research common scams in your destination.",
		},
	},
	{
		Name: "Packing Essentials",
		Icon: "fa-suitcase",
		Tips: []string{
			"Pack a basic first-aid kit (band-aids, pain relievers, antiseptic wipes).",
			"A portable power bank is a lifesaver for long days.",
			"Bring a reusable water bottle to stay hydrated and reduce plastic waste.",
			"Pack one 'smart' outfit for unexpected formal occasions.",
			"Roll your clothes instead of folding to save space and reduce wrinkles.",
			"Bring universal power adapters.",
		},
	},
	{
		Name: "Budget & Money",
		Icon: "fa-wallet",
		Tips: []string{
			"Inform your bank of your travel plans to avoid blocked cards.",
			"Carry a mix of cash and cards. Have a backup card stored separately.",
			"Eat where the locals eat. It's often cheaper and more authentic.",
			"Use public transportation instead of taxis or ride-shares.",
			"Look for free walking tours or city passes for attractions.",
			"Avoid currency exchange kiosks at airports; they have the worst rates.",
		},
	},
	{
		Name: "Local Culture & Etiquette",
		Icon: "fa-globe-asia",
		Tips: []string{
			"Learn a few basic phrases in the local language (Hello, Thank You, Excuse Me).",
			"Research local customs and dress codes, especially for religious sites.",
			"Be respectful when taking photos of people. Always ask for permission first.",
			"Understand the local tipping culture.",
			"Try the local cuisine, but be polite if you don't like something.",
		},
	},
}

// All returns every category in display order.
func All() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		c.Tips = append([]string(nil), c.Tips...)
		out[i] = c
	}
	return out
}

// Find returns the category whose name matches, ignoring case.
func Find(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range All() {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Category{}, false
}
