package telegram

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"giftcard_tracker_bot/internal/domain/giftcard"

	"github.com/shopspring/decimal"
)

var errNoDraft = errors.New("no add form in progress")

// dateLike matches arguments shaped like a date, e.g. 31.13.2026 or 2026-02-30.
var dateLike = regexp.MustCompile(`^\d{1,4}[-./]\d{1,2}[-./]\d{1,4}$`)

// FormStep is the field the add form is waiting for.
type FormStep int

const (
	StepStoreName FormStep = iota
	StepAmount
	StepExpiry
	StepReady // All fields filled, waiting to be saved
)

// Draft is the in-progress input of the add form.
type Draft struct {
	StoreName string
	Amount    decimal.Decimal
	Expiry    giftcard.Date
	Step      FormStep
}

// FormStore keeps one add-form draft per chat. Drafts survive failed saves
// so the user can retry without typing everything again.
type FormStore struct {
	mu            sync.Mutex
	drafts        map[int64]*Draft
	defaultMonths int
	now           func() time.Time
}

func NewFormStore(defaultExpiryMonths int, now func() time.Time) *FormStore {
	if now == nil {
		now = time.Now
	}
	return &FormStore{
		drafts:        make(map[int64]*Draft),
		defaultMonths: defaultExpiryMonths,
		now:           now,
	}
}

// DefaultExpiry is the date the form proposes: defaultMonths from today.
func (f *FormStore) DefaultExpiry() giftcard.Date {
	return giftcard.DateOf(f.now()).AddMonths(f.defaultMonths)
}

// Start begins a new draft for the chat, replacing any previous one.
func (f *FormStore) Start(chatID int64) Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &Draft{Step: StepStoreName, Expiry: f.DefaultExpiry()}
	f.drafts[chatID] = d
	return *d
}

// Put stores a complete draft, e.g. one parsed from a one-shot command.
func (f *FormStore) Put(chatID int64, d Draft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[chatID] = &d
}

func (f *FormStore) Get(chatID int64) (Draft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[chatID]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

func (f *FormStore) Clear(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, chatID)
}

// Advance applies input to the field the draft is waiting for. On a
// validation error the draft stays on the same step.
func (f *FormStore) Advance(chatID int64, input string) (Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[chatID]
	if !ok {
		return Draft{}, errNoDraft
	}

	switch d.Step {
	case StepStoreName:
		name := strings.TrimSpace(input)
		if name == "" {
			return *d, &giftcard.ValidationError{Field: "store name", Message: "must not be empty"}
		}
		d.StoreName = name
		d.Step = StepAmount
	case StepAmount:
		amount, err := giftcard.ParseAmount(input)
		if err != nil {
			return *d, err
		}
		d.Amount = amount
		d.Step = StepExpiry
	case StepExpiry:
		if !isDefaultKeyword(input) {
			expiry, err := giftcard.ParseDate(input)
			if err != nil {
				return *d, err
			}
			d.Expiry = expiry
		}
		d.Step = StepReady
	}
	return *d, nil
}

func isDefaultKeyword(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "default", "/skip", "skip":
		return true
	}
	return false
}

// ParseOneShot reads "/add <store> <amount> [date]" arguments. The store
// name may contain spaces; the amount is the last argument, or the one
// before a trailing date.
func (f *FormStore) ParseOneShot(args []string) (Draft, error) {
	d := Draft{Expiry: f.DefaultExpiry(), Step: StepReady}
	if len(args) < 2 {
		return d, &giftcard.ValidationError{Field: "command", Message: "use /add <store> <amount> [YYYY-MM-DD]"}
	}

	if len(args) >= 3 {
		last := args[len(args)-1]
		expiry, err := giftcard.ParseDate(last)
		switch {
		case err == nil:
			d.Expiry = expiry
			args = args[:len(args)-1]
		case dateLike.MatchString(last):
			return d, err
		}
	}

	amount, err := giftcard.ParseAmount(args[len(args)-1])
	if err != nil {
		return d, err
	}
	d.Amount = amount

	d.StoreName = strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
	if d.StoreName == "" {
		return d, &giftcard.ValidationError{Field: "store name", Message: "must not be empty"}
	}
	return d, nil
}
