package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type intIn int
type strOut string

func TestRouter_SingleHop(t *testing.T) {
	b := NewBuilder()
	Register[intIn, strOut](b, BlockFunc[intIn, strOut](func(_ context.Context, in intIn) (strOut, error) {
		return strOut("got it"), nil
	}))
	topo := b.Done()
	r := NewRouter(topo)

	out, err := Run[intIn, strOut](context.Background(), r, intIn(1))
	require.NoError(t, err)
	require.Equal(t, strOut("got it"), out)
}

// Multi-hop: intIn -> midStage -> strOut, where no block directly handles
// intIn -> strOut - the router must chain through midStage.
type midStage struct{ n int }

func TestRouter_MultiHop(t *testing.T) {
	b := NewBuilder()
	Register[intIn, midStage](b, BlockFunc[intIn, midStage](func(_ context.Context, in intIn) (midStage, error) {
		return midStage{n: int(in) * 2}, nil
	}))
	Register[midStage, strOut](b, BlockFunc[midStage, strOut](func(_ context.Context, in midStage) (strOut, error) {
		return strOut("doubled"), nil
	}))
	topo := b.Done()
	r := NewRouter(topo)

	out, err := Run[intIn, strOut](context.Background(), r, intIn(5))
	require.NoError(t, err)
	require.Equal(t, strOut("doubled"), out)
}

// Capability scoring: two blocks both accept midStage, one declares the
// capability matching an active tag added by the first hop - that one must
// be preferred over registration order.
func TestRouter_CapabilityScoring(t *testing.T) {
	b := NewBuilder()
	Register[intIn, midStage](b, BlockFunc[intIn, midStage](func(ctx context.Context, in intIn) (midStage, error) {
		require.NoError(t, AddTag(ctx, "fancy"))
		return midStage{n: int(in)}, nil
	}))
	// registered first (so would win a pure tie-break), but has no matching capability
	Register[midStage, strOut](b, BlockFunc[midStage, strOut](func(_ context.Context, in midStage) (strOut, error) {
		return strOut("plain"), nil
	}), WithName("plain"))
	// registered second, but declares the capability matching the active tag
	Register[midStage, strOut](b, BlockFunc[midStage, strOut](func(_ context.Context, in midStage) (strOut, error) {
		return strOut("fancy"), nil
	}), WithCapabilities("fancy"), WithName("fancy"))

	topo := b.Done()
	r := NewRouter(topo)

	out, err := Run[intIn, strOut](context.Background(), r, intIn(1))
	require.NoError(t, err)
	require.Equal(t, strOut("fancy"), out)
}

// Tie-break: with no tags active, registration order wins.
func TestRouter_RegistrationOrderTieBreak(t *testing.T) {
	b := NewBuilder()
	Register[intIn, strOut](b, BlockFunc[intIn, strOut](func(_ context.Context, in intIn) (strOut, error) {
		return strOut("first"), nil
	}))
	Register[intIn, strOut](b, BlockFunc[intIn, strOut](func(_ context.Context, in intIn) (strOut, error) {
		return strOut("second"), nil
	}))

	topo := b.Done()
	r := NewRouter(topo)

	out, err := Run[intIn, strOut](context.Background(), r, intIn(1))
	require.NoError(t, err)
	require.Equal(t, strOut("first"), out)
}

// Trick restriction: a Trick-scoped block's output is restricted, for
// exactly one hop, to the Trick's own members - a top-level block that would
// otherwise match must be ignored for that single hop.
type trickIn struct{}
type trickOut struct{ via string }

func TestRouter_TrickRestrictsNextHopOnly(t *testing.T) {
	b := NewBuilder()
	// a top-level block that also accepts trickIn, registered first so it
	// would win a pure registration-order tie-break - must NOT be picked for
	// the hop immediately following the trick's first member, since that hop
	// is restricted to trick members only.
	Register[trickIn, trickOut](b, BlockFunc[trickIn, trickOut](func(_ context.Context, in trickIn) (trickOut, error) {
		return trickOut{via: "top level"}, nil
	}))
	b.Trick("special", func(tb *TrickBuilder) {
		RegisterInTrick[intIn, trickIn](tb, BlockFunc[intIn, trickIn](func(_ context.Context, in intIn) (trickIn, error) {
			return trickIn{}, nil
		}))
		RegisterInTrick[trickIn, trickOut](tb, BlockFunc[trickIn, trickOut](func(_ context.Context, in trickIn) (trickOut, error) {
			return trickOut{via: "trick member"}, nil
		}))
	})

	topo := b.Done()
	r := NewRouter(topo)

	out, err := Run[intIn, trickOut](context.Background(), r, intIn(1))
	require.NoError(t, err)
	require.Equal(t, "trick member", out.via)
}

func TestAddTag_OutsideBlockBodyFails(t *testing.T) {
	err := AddTag(context.Background(), "whatever")
	require.ErrorIs(t, err, ErrNoActiveScope)
}

func TestRouter_NoRoute(t *testing.T) {
	b := NewBuilder()
	topo := b.Done()
	r := NewRouter(topo)

	_, err := Run[intIn, strOut](context.Background(), r, intIn(1))
	require.ErrorIs(t, err, ErrNoRoute)
}
