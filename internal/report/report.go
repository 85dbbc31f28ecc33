// Package report implements the two fixed analytical reports: cinema
// revenue and director performance. Each assembler is a thin composition
// over the query engine: it declares a traversal path, binds reducers to
// the joined tuples and encodes the business formulas (revenue, occupancy,
// per-movie rollups) that the generic layer cannot know about. Assembled
// reports are ephemeral; nothing here writes to the store.
package report

import (
	"errors"
	"strconv"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// ErrEmptyDataset is returned when a report's root collection holds no
// records at all. A filtered-out window is an ordinary empty result; a
// missing root collection usually means the caller is pointed at the
// wrong database, so reports flag it distinctly. Handlers should
// translate this into an HTTP 404 response with its own code.
var ErrEmptyDataset = errors.New("empty dataset")

// Tuple slot names shared by both report paths.
const (
	slotSession  = "session"
	slotRoom     = "room"
	slotMovie    = "movie"
	slotTicket   = "ticket"
	slotPayment  = "payment"
	slotDirector = "director"
)

// Row is one report group ready for serialization. Metrics values are
// pointers so a reducer with no contributing records serializes as null.
type Row struct {
	Key     string              `json:"key"`
	Label   string              `json:"label"`
	Metrics map[string]*float64 `json:"metrics"`
	Details map[string]any      `json:"details,omitempty"`
}

// Report is a fully assembled report response body. Columns records the
// metric order for tabular renderings such as the XLSX export; the JSON
// body doesn't need it since rows carry named metrics.
type Report struct {
	Rows    []Row               `json:"rows"`
	Summary map[string]*float64 `json:"summary"`
	Page    *query.PageInfo     `json:"page,omitempty"`
	Columns []string            `json:"-"`
}

// Assembler builds both reports against one store. It carries no
// per-request state; a single assembler serves all requests.
type Assembler struct {
	store       store.Store
	reg         query.Registry
	resolver    *query.Resolver
	maxPageSize int
}

// Option adjusts assembler construction.
type Option func(*Assembler)

// WithMaxPageSize caps the page size of paginated report responses.
func WithMaxPageSize(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxPageSize = n
		}
	}
}

// WithParallelism bounds the join resolver's concurrent store fetches.
func WithParallelism(n int) Option {
	return func(a *Assembler) {
		a.resolver = query.NewResolver(a.store, a.reg, query.WithParallelism(n))
	}
}

// NewAssembler wires an assembler over the given store and schemas.
func NewAssembler(st store.Store, reg query.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		store:       st,
		reg:         reg,
		resolver:    query.NewResolver(st, reg),
		maxPageSize: query.DefaultMaxPageSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// The extractors below are shared by both reports. Each reads a slot off
// a joined tuple; ok=false when the slot is absent, which the reducers
// treat as "contributes nothing".

// completedAmount yields the payment amount of tuples whose payment
// completed. Pending, refused and refunded rows contribute nothing.
func completedAmount(t query.Tuple) (float64, bool) {
	p, ok := t[slotPayment].(*model.PaymentDetails)
	if !ok || p.Status != model.PaymentCompleted {
		return 0, false
	}
	return p.Amount.InexactFloat64(), true
}

// ticketKey identifies the tuple's ticket for distinct counting.
func ticketKey(t query.Tuple) (string, bool) {
	tk, ok := t[slotTicket].(*model.Ticket)
	if !ok {
		return "", false
	}
	return strconv.FormatUint(tk.ID, 10), true
}

// soldTicketKey identifies the tuple's ticket only when its payment
// completed, so fan-out over extra payment rows cannot double-count.
func soldTicketKey(t query.Tuple) (string, bool) {
	if _, ok := completedAmount(t); !ok {
		return "", false
	}
	return ticketKey(t)
}

// sessionKey identifies the tuple's session for distinct counting.
func sessionKey(t query.Tuple) (string, bool) {
	s, ok := t[slotSession].(*model.Session)
	if !ok {
		return "", false
	}
	return strconv.FormatUint(s.ID, 10), true
}

// movieKey identifies the tuple's movie for distinct counting.
func movieKey(t query.Tuple) (string, bool) {
	m, ok := t[slotMovie].(*model.Movie)
	if !ok {
		return "", false
	}
	return strconv.FormatUint(m.ID, 10), true
}

// fval returns a pointer to v, for literal metric values.
func fval(v float64) *float64 { return &v }

// paginate windows the rows when the caller asked for a page.
func (a *Assembler) paginate(rep *Report, page *query.PageRequest) error {
	if page == nil {
		return nil
	}
	rows, info, err := query.Paginate(rep.Rows, *page, a.maxPageSize)
	if err != nil {
		return err
	}
	rep.Rows = rows
	rep.Page = &info
	return nil
}
