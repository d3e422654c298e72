package study

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/ai-study-companion/internal/chat"
	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/logger"
	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoPage        = errors.New("no page selected")
	ErrNodeNotFound  = errors.New("node not found")
)

// Provider produces answers and follow-up questions. *chat.Client
// implements it.
type Provider interface {
	StreamResponse(ctx context.Context, messages []chat.Message, topic string) iter.Seq[string]
	FollowUpQuestions(ctx context.Context, history []chat.Message, topic string) []string
}

// Store persists chat turns. *index.DB implements it.
type Store interface {
	SaveChat(r index.Record) (int64, error)
	ChatHistory(sessionID string, f index.Filter) ([]index.Record, error)
}

// Page identifies one (section, subsection) of the lecture. Subsection is
// empty for a section page.
type Page struct {
	Section    string
	Subsection string
}

// LearningEntry is one question and answer, in the order they happened.
type LearningEntry struct {
	Section    string
	Subsection string
	Prompt     string
	Response   string
	Time       time.Time
}

// Session is one learner working through one lecture. It is safe for
// concurrent use; Ask calls on the same session are serialized.
type Session struct {
	ID      string
	Lecture string

	doc      *parse.Document
	provider Provider
	store    Store
	log      *logger.Logger

	askMu sync.Mutex

	mu        sync.Mutex
	page      Page
	node      *parse.ContentNode
	histories map[Page][]chat.Message
	followUps map[Page][]string
	learning  []LearningEntry
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// New creates a session. An empty id gets a fresh one; store may be nil
// to keep the conversation in memory only.
func New(id, lecture string, doc *parse.Document, provider Provider, store Store, log *logger.Logger) *Session {
	if id == "" {
		id = NewID()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		ID:        id,
		Lecture:   lecture,
		doc:       doc,
		provider:  provider,
		store:     store,
		log:       log.With("session", id, "lecture", lecture),
		histories: make(map[Page][]chat.Message),
		followUps: make(map[Page][]string),
	}
}

func (s *Session) Document() *parse.Document { return s.doc }

// Open selects a page. The first time a page is opened its stored history
// for this session is loaded.
func (s *Session) Open(section, subsection string) (*parse.ContentNode, error) {
	node, ok := s.doc.Node(section, subsection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, pageTitle(section, subsection))
	}
	page := Page{Section: section, Subsection: subsection}

	s.mu.Lock()
	_, loaded := s.histories[page]
	s.mu.Unlock()

	var resumed []chat.Message
	if !loaded && s.store != nil {
		records, err := s.store.ChatHistory(s.ID, index.Filter{Lecture: s.Lecture, Section: section, Subsection: subsection})
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		for _, r := range records {
			// section pages share the filter with their subsections
			if r.Subsection != subsection {
				continue
			}
			resumed = append(resumed, chat.Message{Role: r.Role, Content: r.Content})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.histories[page]; !ok {
		s.histories[page] = resumed
	}
	s.page = page
	s.node = node
	return node, nil
}

// Current returns the selected page and node; node is nil before Open.
func (s *Session) Current() (Page, *parse.ContentNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.node
}

// InitialPrompt is the text offered as the first question for the current
// page: its prompt when present and non-empty, its content otherwise.
func (s *Session) InitialPrompt() string {
	_, node := s.Current()
	if node == nil {
		return ""
	}
	if p, ok := node.Prompt.Get(); ok && strings.TrimSpace(p) != "" {
		return p
	}
	return node.Content
}

// Topic is the topic sent with answers: "<lecture> - <section> - <subsection>".
func (s *Session) Topic() string {
	page, _ := s.Current()
	return joinTopic(s.Lecture, page.Section, page.Subsection)
}

func (s *Session) followUpTopic(page Page) string {
	return joinTopic(page.Section, page.Subsection)
}

func joinTopic(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " - ")
}

func pageTitle(section, subsection string) string {
	if subsection == "" {
		return section
	}
	return section + " / " + subsection
}

// Ask sends text on the current page and streams the answer through
// onDelta, which may be nil. Both turns are kept in the page history and
// persisted. A store failure is returned together with the answer.
func (s *Session) Ask(ctx context.Context, text string, onDelta func(string)) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyQuestion
	}

	s.askMu.Lock()
	defer s.askMu.Unlock()

	s.mu.Lock()
	if s.node == nil {
		s.mu.Unlock()
		return "", ErrNoPage
	}
	page := s.page
	messages := append(append([]chat.Message(nil), s.histories[page]...), chat.Message{Role: chat.RoleUser, Content: text})
	s.mu.Unlock()

	asked := time.Now()
	var answer strings.Builder
	for frag := range s.provider.StreamResponse(ctx, messages, joinTopic(s.Lecture, page.Section, page.Subsection)) {
		answer.WriteString(frag)
		if onDelta != nil {
			onDelta(frag)
		}
	}
	reply := answer.String()
	answered := time.Now()

	s.mu.Lock()
	s.histories[page] = append(s.histories[page],
		chat.Message{Role: chat.RoleUser, Content: text},
		chat.Message{Role: chat.RoleAssistant, Content: reply},
	)
	delete(s.followUps, page)
	s.learning = append(s.learning, LearningEntry{
		Section:    page.Section,
		Subsection: page.Subsection,
		Prompt:     text,
		Response:   reply,
		Time:       answered,
	})
	s.mu.Unlock()

	s.log.Debug("question answered", "section", page.Section, "subsection", page.Subsection, "answer_len", len(reply))
	return reply, s.persist(page, asked, text, answered, reply)
}

func (s *Session) persist(page Page, asked time.Time, question string, answered time.Time, answer string) error {
	if s.store == nil {
		return nil
	}
	rec := index.Record{
		SessionID:  s.ID,
		Lecture:    s.Lecture,
		Section:    page.Section,
		Subsection: page.Subsection,
	}
	user, assistant := rec, rec
	user.Role, user.Content, user.Timestamp = chat.RoleUser, question, asked
	assistant.Role, assistant.Content, assistant.Timestamp = chat.RoleAssistant, answer, answered

	for _, r := range []index.Record{user, assistant} {
		if _, err := s.store.SaveChat(r); err != nil {
			s.log.Error("save chat failed", "role", r.Role, "error", err)
			return fmt.Errorf("save chat: %w", err)
		}
	}
	return nil
}

// FollowUps returns the suggested questions for the current page,
// generating them once per page and answer. A page without history has none.
func (s *Session) FollowUps(ctx context.Context) []string {
	s.mu.Lock()
	page := s.page
	if s.node == nil || len(s.histories[page]) == 0 {
		s.mu.Unlock()
		return nil
	}
	if qs, ok := s.followUps[page]; ok {
		s.mu.Unlock()
		return append([]string(nil), qs...)
	}
	history := append([]chat.Message(nil), s.histories[page]...)
	s.mu.Unlock()

	qs := s.provider.FollowUpQuestions(ctx, history, s.followUpTopic(page))

	s.mu.Lock()
	s.followUps[page] = qs
	s.mu.Unlock()
	return append([]string(nil), qs...)
}

// RefreshFollowUps drops the cached questions and generates a new set.
func (s *Session) RefreshFollowUps(ctx context.Context) []string {
	s.mu.Lock()
	delete(s.followUps, s.page)
	s.mu.Unlock()
	return s.FollowUps(ctx)
}

// History returns the conversation on the current page.
func (s *Session) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.histories[s.page]...)
}

// LearningHistory returns every question and answer of the session in order.
func (s *Session) LearningHistory() []LearningEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LearningEntry(nil), s.learning...)
}
