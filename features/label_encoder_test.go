package features

import (
	"bytes"
	"testing"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

func TestLabelEncoderFitEncodeDecode(t *testing.T) {
	le := NewLabelEncoder()
	tags := []string{"mlops", "computer-vision", "mlops", "nlp"}
	if err := le.Fit(tags); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// Classes are sorted for deterministic indices.
	want := []string{"computer-vision", "mlops", "nlp"}
	got := le.Classes()
	if len(got) != len(want) {
		t.Fatalf("expected %d classes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected classes %v, got %v", want, got)
		}
	}

	encoded, err := le.Encode(tags)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := le.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range tags {
		if decoded[i] != tags[i] {
			t.Errorf("row %d: encode/decode round-trip %q -> %q", i, tags[i], decoded[i])
		}
	}
}

func TestLabelEncoderUnseenLabel(t *testing.T) {
	le := NewLabelEncoder()
	if err := le.Fit([]string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := le.Encode([]string{"c"}); err == nil {
		t.Error("expected error for unseen label")
	}
}

func TestLabelEncoderNotFitted(t *testing.T) {
	le := NewLabelEncoder()
	if _, err := le.Encode([]string{"a"}); err == nil {
		t.Fatal("expected NotFittedError")
	} else {
		var notFitted *scierr.NotFittedError
		if !scierr.As(err, &notFitted) {
			t.Errorf("expected NotFittedError, got %v", err)
		}
	}
	if err := le.Save(&bytes.Buffer{}); err == nil {
		t.Error("expected NotFittedError from Save")
	}
}

func TestLabelEncoderSaveLoad(t *testing.T) {
	le := NewLabelEncoder()
	if err := le.Fit([]string{"mlops", "nlp", "computer-vision"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := le.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadLabelEncoder(&buf)
	if err != nil {
		t.Fatalf("LoadLabelEncoder: %v", err)
	}

	if loaded.NumClasses() != le.NumClasses() {
		t.Fatalf("class count mismatch: %d vs %d", loaded.NumClasses(), le.NumClasses())
	}
	for i, class := range le.Classes() {
		if loaded.Classes()[i] != class {
			t.Errorf("class %d mismatch: %q vs %q", i, loaded.Classes()[i], class)
		}
	}

	encoded, err := loaded.Encode([]string{"nlp"})
	if err != nil {
		t.Fatalf("Encode after load: %v", err)
	}
	wantIdx, _ := le.Encode([]string{"nlp"})
	if encoded[0] != wantIdx[0] {
		t.Errorf("index mismatch after round-trip: %d vs %d", encoded[0], wantIdx[0])
	}
}

func TestLoadLabelEncoderCorrupt(t *testing.T) {
	if _, err := LoadLabelEncoder(bytes.NewReader([]byte("{not json"))); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := LoadLabelEncoder(bytes.NewReader([]byte(`{"class_to_index":{}}`))); err == nil {
		t.Error("expected error for empty vocabulary")
	}
	if _, err := LoadLabelEncoder(bytes.NewReader([]byte(`{"class_to_index":{"a":5}}`))); err == nil {
		t.Error("expected error for non-contiguous indices")
	}
}
