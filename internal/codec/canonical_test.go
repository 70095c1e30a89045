package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalGoldenBytes(t *testing.T) {
	cases := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null, "null"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"positive int", Int(42), "42"},
		{"negative int", Int(-301), "-301"},
		{"zero", Int(0), "0"},
		{"string with escapes", Str("a\"b\\c\n"), `"a\"b\\c\n"`},
		{"empty array", Arr(), "[]"},
		{"array preserves order", Arr(Int(3), Int(1), Int(2)), "[3,1,2]"},
		{"empty object", Obj(map[string]Value{}), "{}"},
		{
			"object sorts keys regardless of construction order",
			Obj(map[string]Value{"b": Int(2), "a": Int(1), "c": Int(3)}),
			`{"a":1,"b":2,"c":3}`,
		},
		{
			"nested structure",
			Obj(map[string]Value{
				"items": Arr(Obj(map[string]Value{"id": Str("x"), "n": Int(1)})),
			}),
			`{"items":[{"id":"x","n":1}]}`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Marshal(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, string(got))
		})
	}
}

func TestMarshalRejectsUnsupportedTypes(t *testing.T) {
	_, err := Marshal(3.14)
	assert.Error(t, err)
}

func TestFingerprintIsDeterministic(t *testing.T) {
	v := Obj(map[string]Value{
		"b": Int(2),
		"a": Arr(Str("x"), Str("y")),
	})
	digest1, canonical1, err := Fingerprint(v)
	require.NoError(t, err)
	digest2, canonical2, err := Fingerprint(v)
	require.NoError(t, err)

	assert.Equal(t, digest1, digest2)
	assert.Equal(t, canonical1, canonical2)
	assert.Len(t, digest1, 64, "hex-encoded SHA-256 digest must be 64 characters")
}

func TestFingerprintChangesWithContent(t *testing.T) {
	d1, _, err := Fingerprint(Obj(map[string]Value{"a": Int(1)}))
	require.NoError(t, err)
	d2, _, err := Fingerprint(Obj(map[string]Value{"a": Int(2)}))
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestObjKeyOrderDoesNotAffectEncoding(t *testing.T) {
	m1 := map[string]Value{"z": Int(1), "a": Int(2)}
	m2 := map[string]Value{"a": Int(2), "z": Int(1)}
	b1, err := Marshal(Obj(m1))
	require.NoError(t, err)
	b2, err := Marshal(Obj(m2))
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}
