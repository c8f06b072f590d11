package chatbot

import (
	"strings"
	"unicode"
)

// CommandNearby asks the host to run a nearby lookup instead of showing text.
const CommandNearby = "CMD::NEARBY"

// Rule names.
const (
	RuleGreeting  = "greeting"
	RuleEmergency = "emergency"
	RuleLocation  = "location"
	RuleSafety    = "safety"
	RuleHelp      = "help"
	RuleNearby    = "nearby"
	RuleThanks    = "thanks"
	RuleFallback  = "fallback"
)

const (
	replyGreeting = "Hi there! I'm your travel assistant. How can I help you? " +
		"You can ask for 'safety tips', 'emergency contacts', or 'where am I'."

	replyEmergency = "I'm sorry to hear that. Please stay calm. Here are the national emergency numbers for India:\n\n" +
		"- **Police:** 100 or 112\n" +
		"- **Ambulance:** 108\n" +
		"- **Fire:** 101\n"

	replySafety = "Here are some quick safety tips:\n\n" +
		"- Keep copies of your important documents.\n" +
		"- Share your itinerary with family.\n" +
		"- Avoid walking alone in unfamiliar areas at night.\n" +
		"- Use a money belt for cash and passport.\n"

	replyHelp = "I can help you with:\n\n" +
		"- **'safety tips'**\n" +
		"- **'emergency contacts'**\n" +
		"- **'where am i'** to find your location\n" +
		"- **'find nearby atm/fuel'**\n"

	replyNearbyGuide = "I can find nearby attractions, fuel, and ATMs. Please click the 'Nearby Attractions' card " +
		"on the dashboard or ask me to 'find nearby fuel'."

	replyThanks = "You're welcome! Safe travels!"

	replyFallback = "I'm sorry, I don't understand that. You can ask me for 'help', 'safety tips', " +
		"'emergency contacts', or 'where am I'."

	ReplyLocating      = "Getting your current location... please wait."
	ReplyNoGeolocation = "Sorry, your browser doesn't support Geolocation."
	ReplyLocateFailed  = "Sorry, I couldn't get your location. Please make sure you've enabled location permissions for this site."
	ReplyOpeningNearby = "Sure! Opening the 'Nearby Attractions' panel for you..."
)

type rule struct {
	name     string
	keywords []string
	reply    func(n normalized) string
}

var rules = []rule{
	{RuleGreeting, []string{"hello", "hi", "hey"}, fixed(replyGreeting)},
	{RuleEmergency, []string{"emergency", "danger", "stuck", "help me"}, fixed(replyEmergency)},
	{RuleLocation, []string{"where am i", "my location", "find me"}, fixed(ReplyLocating)},
	{RuleSafety, []string{"safety", "tips"}, fixed(replySafety)},
	{RuleHelp, []string{"help", "what can you do"}, fixed(replyHelp)},
	{RuleNearby, []string{"find nearby", "where is the nearest"}, nearbyReply},
	{RuleThanks, []string{"thanks", "thank you", "bye"}, fixed(replyThanks)},
}

var facilityWords = []string{
	"atm", "atms", "fuel", "petrol", "restaurant", "restaurants", "food", "famous place", "famous places",
}

func fixed(s string) func(normalized) string {
	return func(normalized) string { return s }
}

func nearbyReply(n normalized) string {
	if n.hasAny(facilityWords) {
		return CommandNearby
	}
	return replyNearbyGuide
}

// normalized is lower-cased input reduced to space-separated words, padded
// with a space on both sides so keywords match on word boundaries.
type normalized string

func normalize(input string) normalized {
	words := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return normalized(" " + strings.Join(words, " ") + " ")
}

func (n normalized) has(keyword string) bool {
	return strings.Contains(string(n), " "+keyword+" ")
}

func (n normalized) hasAny(keywords []string) bool {
	for _, k := range keywords {
		if n.has(k) {
			return true
		}
	}
	return false
}

// Reply is the outcome of matching one input.
type Reply struct {
	Rule     string `json:"rule"`
	Markdown string `json:"text"`
}

// IsCommand reports whether the reply is the nearby sentinel.
func (r Reply) IsCommand() bool {
	return r.Markdown == CommandNearby
}

// Match returns the reply of the first rule whose keywords appear in input.
func Match(input string) Reply {
	n := normalize(input)
	for _, r := range rules {
		if n.hasAny(r.keywords) {
			return Reply{Rule: r.name, Markdown: r.reply(n)}
		}
	}
	return Reply{Rule: RuleFallback, Markdown: replyFallback}
}
