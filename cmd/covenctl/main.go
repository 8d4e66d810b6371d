// Command covenctl wires a minimal chat-shaped pipeline end to end: a
// covenant is validated, a windowing daemon assembles streamed draft chunks
// into paragraphs on an in-memory journal, and the resulting fixed entries
// are printed as they land. It exists to demonstrate the runtime against
// real input; it is not an adapter for any chat system.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeycumines/coven/covenant"
	"github.com/joeycumines/coven/scope"
	"github.com/joeycumines/coven/scrivener"
	"github.com/joeycumines/coven/transmute"
	"github.com/joeycumines/coven/window"
	"github.com/joeycumines/stumpy"
)

type (
	// chatEntry is the closed sum carried by the demo journal.
	chatEntry interface{ isChatEntry() }

	// UserAfferent is a fixed entry: a user-visible inbound message.
	UserAfferent struct{ Text string }

	// Chunk is a draft entry: one fragment of a streamed response.
	Chunk struct{ Text string }

	// StreamCompleted is the terminal draft marker for one stream.
	StreamCompleted struct{}

	// Efferent is a fixed entry: an assembled outbound paragraph.
	Efferent struct{ Text string }
)

func (UserAfferent) isChatEntry()    {}
func (Chunk) isChatEntry()           {}
func (StreamCompleted) isChatEntry() {}
func (Efferent) isChatEntry()        {}

func (Chunk) Draft() bool           { return true }
func (StreamCompleted) Draft() bool { return true }

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "covenctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stdout)),
	).Logger()

	// Prove the graph closed before anything starts: Chunk windows into
	// Efferent, which leaves to the outside; UserAfferent enters from the
	// outside and is forwarded directly by the (external) adapter.
	b := covenant.NewBuilder("chat")
	covenant.Source[UserAfferent](b)
	covenant.Source[Chunk](b)
	covenant.Sink[Efferent](b)
	covenant.Window[Chunk, Efferent](b, nil, nil, nil)
	if err := b.Validate(); err != nil {
		return err
	}

	journal := scrivener.New[chatEntry]()
	logger.Info().
		Str("journal", journal.ID().String()).
		Log("covenant validated")

	paragraphs := window.New(window.Config[chatEntry, string, chatEntry]{
		Input:  journal,
		Output: journal,
		Chunk: func(e chatEntry) (string, bool) {
			c, ok := e.(Chunk)
			return c.Text, ok
		},
		StreamCompleted: func(e chatEntry) bool {
			_, ok := e.(StreamCompleted)
			return ok
		},
		Policy: window.SuffixBoundaryPolicy[string]{
			Text:     func(s string) string { return s },
			Boundary: []string{"\n\n"},
		},
		Batcher: transmute.BatchTransmuterFunc[string, chatEntry](
			func(ctx context.Context, chunks []string) (transmute.BatchResult[string, chatEntry], error) {
				return transmute.BatchResult[string, chatEntry]{
					Output: Efferent{Text: strings.Join(chunks, "")},
				}, nil
			},
		),
		Logger: logger,
		Name:   "paragraphs",
	})

	s := scope.New()
	s.Register("paragraphs", paragraphs)
	ctx = scope.WithScope(ctx, s)

	if err := s.Begin(ctx); err != nil {
		return err
	}

	journal.Append(UserAfferent{Text: "tell me a story"})
	for _, text := range []string{"once ", "upon ", "a time\n\n", "the end"} {
		journal.Append(Chunk{Text: text})
	}
	journal.Append(StreamCompleted{})

	// Two paragraphs: one at the boundary, one forced by StreamCompleted.
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var after scrivener.Position
	for i := 0; i < 2; i++ {
		rec, efferent, err := scrivener.WaitForVariant[chatEntry, Efferent](waitCtx, journal, after)
		if err != nil {
			return err
		}
		after = rec.Position
		logger.Info().
			Int64("position", int64(rec.Position)).
			Str("text", efferent.Text).
			Log("efferent")
	}

	return s.End(ctx)
}
