// Package chatbot is the rule-based travel assistant and its per-user transcript.
package chatbot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"

	"smarttravel/internal/domain"
	"smarttravel/internal/geo"
	"smarttravel/internal/utils"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"

	transcriptLimit = 200
	locateTimeout   = 10 * time.Second
)

// Render turns a bot reply written in markdown into an HTML fragment. Raw
// HTML in the source is dropped.
func Render(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.HrefTargetBlank | mdhtml.SkipHTML})
	return strings.TrimSpace(string(markdown.Render(doc, renderer)))
}

// Message is one transcript line.
type Message struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	HTML   string    `json:"html"`
	At     time.Time `json:"at"`
	// Deferred marks a bot message appended after the reply it follows up.
	Deferred bool `json:"deferred,omitempty"`
}

// Locator resolves the user's current position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// Position is a located point with an optional street address.
type Position struct {
	Point   geo.Point
	Address string
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context) (Position, error) { return f(ctx) }

// MapLink returns the OpenStreetMap link for p.
func MapLink(p geo.Point) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=16/%.6f/%.6f", p.Lat, p.Lon, p.Lat, p.Lon)
}

func locatedReply(pos Position) string {
	var b strings.Builder
	b.WriteString("I've found your location!")
	if pos.Address != "" {
		fmt.Fprintf(&b, " You are near %s.", pos.Address)
	}
	fmt.Fprintf(&b, "\n\n[Click here to see it on a map.](%s)", MapLink(pos.Point))
	return b.String()
}

// Conversation is one user's chat transcript.
type Conversation struct {
	UserID domain.ID

	mu       sync.Mutex
	messages []Message
	now      func() time.Time
	notify   func(Message)
	pending  sync.WaitGroup
}

// OnMessage registers a callback run for every appended message.
func (c *Conversation) OnMessage(fn func(Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// Send records the user's input, matches it and records the bot reply. For the
// location rule the reply is a placeholder and the located result is appended
// later; Wait blocks until it is.
func (c *Conversation) Send(input string, loc Locator) (Reply, []Message) {
	input = utils.NormalizeSpace(input)
	user := c.appendMessage(Message{Sender: SenderUser, Text: input, HTML: html.EscapeString(input)})

	reply := Match(input)
	if reply.Rule == RuleLocation && loc == nil {
		reply.Markdown = ReplyNoGeolocation
	}

	if reply.IsCommand() {
		bot := c.appendBot(ReplyOpeningNearby, false)
		return reply, []Message{user, bot}
	}

	bot := c.appendBot(reply.Markdown, false)
	if reply.Rule == RuleLocation && loc != nil {
		c.pending.Add(1)
		go c.locate(loc)
	}
	return reply, []Message{user, bot}
}

func (c *Conversation) locate(loc Locator) {
	defer c.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), locateTimeout)
	defer cancel()

	pos, err := loc.Locate(ctx)
	if err != nil || !pos.Point.Valid() {
		utils.LogEventf("", "chatbot", "locate_failed", "user=%d err=%v", c.UserID, err)
		c.appendBot(ReplyLocateFailed, true)
		return
	}
	c.appendBot(locatedReply(pos), true)
}

// AddBotMessage appends a bot message rendered from markdown.
func (c *Conversation) AddBotMessage(md string) Message {
	return c.appendBot(md, false)
}

func (c *Conversation) appendBot(md string, deferred bool) Message {
	return c.appendMessage(Message{Sender: SenderBot, Text: md, HTML: Render(md), Deferred: deferred})
}

func (c *Conversation) appendMessage(m Message) Message {
	c.mu.Lock()
	m.ID = uuid.NewString()
	m.At = c.now()
	c.messages = append(c.messages, m)
	if len(c.messages) > transcriptLimit {
		c.messages = c.messages[len(c.messages)-transcriptLimit:]
	}
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(m)
	}
	return m
}

// Transcript returns a copy of the messages so far.
func (c *Conversation) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Wait blocks until deferred replies have been appended.
func (c *Conversation) Wait() {
	c.pending.Wait()
}

// Store keeps one Conversation per user.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	convs map[domain.ID]*Conversation
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now, convs: map[domain.ID]*Conversation{}}
}

// Get returns the user's conversation, creating it on first use.
func (s *Store) Get(userID domain.ID) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[userID]
	if !ok {
		c = &Conversation{UserID: userID, now: s.now}
		s.convs[userID] = c
	}
	return c
}

// Drop forgets the user's conversation.
func (s *Store) Drop(userID domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, userID)
}
