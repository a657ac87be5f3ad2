package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func color(id, name, value string) Token {
	return Token{ID: id, Name: name, Type: TypeColor, Value: value, Origin: OriginManual}
}

func external(id, name, value string) Token {
	return Token{ID: id, Name: name, Type: TypeColor, Value: value, Origin: OriginExternal}
}

func ids(toks []Token) (out []string) {
	for _, t := range toks {
		out = append(out, t.ID)
	}
	return
}

func TestStoreNetEffect(t *testing.T) {
	s := NewStore()

	s.ApplyCreate(color("a", "Brand/A", "#111111"))
	s.ApplyCreate(color("b", "Brand/B", "#222222"))
	s.ApplyUpdate(color("a", "Brand/A", "#aaaaaa"))
	s.ApplyDelete("b")

	snap := s.Snapshot()
	assert.Equal(t, []string{"a"}, ids(snap))
	assert.Equal(t, "#aaaaaa", snap[0].Value)
}

func TestStoreDeleteMissingIsNoop(t *testing.T) {
	s := NewStore()
	s.ApplyCreate(color("a", "Brand/A", "#111111"))

	s.ApplyDelete("nope")
	s.ApplyDelete("nope")

	assert.Equal(t, 1, s.Len())
}

func TestStoreUpdateMissingCreates(t *testing.T) {
	s := NewStore()

	s.ApplyUpdate(color("ghost", "Brand/Ghost", "#000000"))

	snap := s.Snapshot()
	assert.Equal(t, []string{"ghost"}, ids(snap))
}

func TestStoreSyncRoundTrip(t *testing.T) {
	s := NewStore()
	set := []Token{
		external("S:1", "Brand/Primary", "#0066CC"),
		color("m1", "Brand/Manual", "#ff0000"),
	}

	s.ApplySync(set)

	assert.Equal(t, set, s.Snapshot())
	assert.False(t, s.LastSync().IsZero())
}

func TestStoreSyncPreservesManualTokens(t *testing.T) {
	s := NewStore()
	s.ApplyCreate(color("mine", "Custom/Mine", "#123456"))
	s.ApplyCreate(external("S:old", "Brand/Old", "#000000"))

	s.ApplySync([]Token{external("S:new", "Brand/New", "#ffffff")})

	assert.ElementsMatch(t, []string{"S:new", "mine"}, ids(s.Snapshot()))
}

func TestStoreSyncReplacesManualWhenIncluded(t *testing.T) {
	s := NewStore()
	s.ApplyCreate(color("mine", "Custom/Mine", "#123456"))

	s.ApplySync([]Token{color("mine", "Custom/Mine", "#654321")})

	snap := s.Snapshot()
	assert.Equal(t, 1, len(snap))
	assert.Equal(t, "#654321", snap[0].Value)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.ApplyCreate(color("a", "Brand/A", "#111111"))

	snap := s.Snapshot()
	snap[0].Value = "#mutated"

	assert.Equal(t, "#111111", s.Snapshot()[0].Value)
}

func TestStoreDigestTracksState(t *testing.T) {
	s := NewStore()
	assert.Equal(t, uint64(0), s.Digest())

	s.ApplyCreate(color("a", "Brand/A", "#111111"))
	first := s.Digest()
	assert.NotZero(t, first)
	assert.Equal(t, first, s.Digest())

	s.ApplyUpdate(color("a", "Brand/A", "#222222"))
	assert.NotEqual(t, first, s.Digest())
}

func TestInferOrigin(t *testing.T) {
	assert.Equal(t, OriginExternal, InferOrigin("S:0a1b2c,"))
	assert.Equal(t, OriginExternal, InferOrigin("VariableID:12:34"))
	assert.Equal(t, OriginManual, InferOrigin("debug-1"))

	// the explicit tag wins over the id shape
	tagged := Token{ID: "S:0a1b2c", Origin: OriginManual}
	assert.False(t, tagged.External())
}
