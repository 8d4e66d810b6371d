package covenant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type UserAfferent struct{}
type Chunk struct{}
type Efferent struct{}

// A chat-shaped graph - Sources={UserAfferent, Chunk}, Sink={Efferent},
// Window(Chunk->Efferent) - validates cleanly.
func TestValidate_ChatExampleSucceeds(t *testing.T) {
	b := NewBuilder("chat")
	Source[UserAfferent](b)
	Source[Chunk](b)
	Sink[Efferent](b)
	Window[Chunk, Efferent](b, nil, nil, nil)

	require.NoError(t, b.Validate())
}

// Removing the Window edge from the chat graph leaves Efferent unreachable:
// no edge produces it for the declared Sink to receive. (Chunk itself is not
// a dead letter - that offence is for types produced by internal edges, and
// a Source with no outgoing edge merely enters and goes nowhere.)
func TestValidate_ChatExampleWithoutWindowFails(t *testing.T) {
	b := NewBuilder("chat")
	Source[UserAfferent](b)
	Source[Chunk](b)
	Sink[Efferent](b)

	err := b.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	var sawUnreachableEfferent bool
	for _, o := range verr.Offences {
		if o.Rule == RuleUnreachableSink && len(o.Types) == 1 && o.Types[0] == typeOf[Efferent]() {
			sawUnreachableEfferent = true
		}
	}
	require.True(t, sawUnreachableEfferent, "expected Efferent to be listed as an unreachable sink: %v", verr.Offences)
}

// A Transform A->B where B is neither consumed nor a Sink fails with a
// dead-letter offence naming B.
func TestValidate_DeadLetter(t *testing.T) {
	type A struct{}
	type B struct{}

	b := NewBuilder("dead-letter")
	Source[A](b)
	Transform[A, B](b, nil)

	err := b.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, offenceRules(verr), RuleDeadLetter)
}

// A Transform A->B where A is neither produced nor a Source fails with
// an orphan-consumer offence naming A.
func TestValidate_OrphanConsumer(t *testing.T) {
	type A struct{}
	type B struct{}

	b := NewBuilder("orphan")
	Transform[A, B](b, nil)
	Sink[B](b)

	err := b.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, offenceRules(verr), RuleOrphanConsumer)
}

// A Sink that no path from any Source reaches fails validation, even
// though the rest of the graph is closed.
func TestValidate_UnreachableSink(t *testing.T) {
	type A struct{}
	type B struct{}
	type C struct{}

	b := NewBuilder("unreachable")
	Source[A](b)
	Transform[A, B](b, nil)
	Sink[B](b)
	Sink[C](b) // unreachable: nothing produces C

	err := b.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, offenceRules(verr), RuleUnreachableSink)
}

func TestValidate_DoubleTransformRejected(t *testing.T) {
	type A struct{}
	type B struct{}
	type C struct{}

	b := NewBuilder("double")
	Source[A](b)
	Transform[A, B](b, nil)
	Transform[A, C](b, nil)
	Sink[B](b)
	Sink[C](b)

	err := b.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, offenceRules(verr), RuleDoubleTransform)
}

func TestJunction_RequiresRouteOrFallback(t *testing.T) {
	type A struct{}

	b := NewBuilder("empty-junction")
	err := Junction[A](b, JunctionConfig{})
	require.Error(t, err)
}

func TestJunction_ValidatesWithFallbackOnly(t *testing.T) {
	type A struct{}
	type B struct{}

	b := NewBuilder("fallback-only")
	Source[A](b)
	fallback := RouteTo[B]()
	require.NoError(t, Junction[A](b, JunctionConfig{Fallback: &fallback}))
	Sink[B](b)

	require.NoError(t, b.Validate())
}

func offenceRules(verr *ValidationError) []string {
	out := make([]string, len(verr.Offences))
	for i, o := range verr.Offences {
		out[i] = o.Rule
	}
	return out
}
