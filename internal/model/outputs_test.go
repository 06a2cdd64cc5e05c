package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodegen/pkg/testsupport"
)

func TestResolveOutput(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want OutputSpec
	}{
		{
			name: "text stream",
			doc: `{"owner": "meta", "name": "llama",
				"default_example": {"output": ["Hello", " world"]},
				"latest_version": {"openapi_schema": {"components": {"schemas": {
					"Output": {"type": "array", "items": {"type": "string"}, "x-cog-array-type": "iterator"}
				}}}}}`,
			want: OutputSpec{Type: TypeText},
		},
		{
			name: "video example wins over schema",
			doc: `{"owner": "acme", "name": "video",
				"default_example": {"output": "https://cdn.example.com/out.mp4"},
				"latest_version": {"openapi_schema": {"components": {"schemas": {
					"Output": {"type": "string", "format": "uri"}
				}}}}}`,
			want: OutputSpec{Type: TypeVideo},
		},
		{
			name: "audio example",
			doc: `{"owner": "acme", "name": "tts",
				"default_example": {"output": "https://cdn.example.com/speech.wav"},
				"latest_version": {"openapi_schema": {"components": {"schemas": {
					"Output": {"type": "string", "format": "uri"}
				}}}}}`,
			want: OutputSpec{Type: TypeAudio},
		},
		{
			name: "single uri without example",
			doc: `{"owner": "acme", "name": "uri",
				"latest_version": {"openapi_schema": {"components": {"schemas": {
					"Output": {"type": "string", "format": "uri"}
				}}}}}`,
			want: OutputSpec{Type: TypeImage},
		},
		{
			name: "array of uri through ref",
			doc: `{"owner": "acme", "name": "uris",
				"latest_version": {"openapi_schema": {"components": {"schemas": {
					"Output": {"$ref": "#/components/schemas/Files"},
					"Files": {"type": "array", "items": {"$ref": "#/components/schemas/File"}},
					"File": {"type": "string", "format": "uri"}
				}}}}}`,
			want: OutputSpec{Type: TypeImage},
		},
		{
			name: "no output schema",
			doc:  `{"owner": "acme", "name": "none"}`,
			want: OutputSpec{Type: TypeText},
		},
		{
			name: "named outputs",
			doc: `{"owner": "acme", "name": "named",
				"default_example": {"output": {
					"preview": "https://cdn.example.com/p.jpg",
					"caption": "a cat"
				}},
				"latest_version": {"openapi_schema": {"components": {"schemas": {
					"Output": {"type": "object", "properties": {
						"preview": {"type": "string", "format": "uri"},
						"audio_out": {"type": "string", "format": "uri"},
						"mask_image": {"type": "string", "format": "uri"},
						"caption": {"type": "string"},
						"json": {"type": "string", "format": "uri"}
					}}
				}}}}}`,
			want: OutputSpec{Fields: []OutputField{
				{Name: "preview", Type: TypeImage},
				{Name: "audio_out", Type: TypeAudio},
				{Name: "mask_image", Type: TypeImage},
				{Name: "caption", Type: TypeText},
				{Name: "json", Type: TypeText},
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveOutput(testsupport.MustParseDocument(t, tc.doc))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutputSpec_Tuples(t *testing.T) {
	single := OutputSpec{Type: TypeImage}
	if diff := cmp.Diff([]string{"IMAGE"}, single.Names()); diff != "" {
		t.Fatalf("single names mismatch (-want +got):\n%s", diff)
	}

	named := OutputSpec{Fields: []OutputField{{Name: "audio", Type: TypeAudio}, {Name: "text", Type: TypeText}}}
	if diff := cmp.Diff([]SemanticType{TypeAudio, TypeText}, named.Types()); diff != "" {
		t.Fatalf("named types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"audio", "text"}, named.Names()); diff != "" {
		t.Fatalf("named names mismatch (-want +got):\n%s", diff)
	}
}
