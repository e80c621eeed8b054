package llmjson

import "testing"

func TestExtractObjectPlain(t *testing.T) {
	data, err := ExtractObject(`{"score": 72}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"score": 72}` {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestExtractObjectFenced(t *testing.T) {
	raw := "```json\n{\"score\": 72}\n```"
	data, err := ExtractObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"score": 72}` {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestExtractObjectSurroundedByProse(t *testing.T) {
	raw := "Here is the analysis you asked for:\n{\"score\": 72, \"ok\": true}\nLet me know if you need more."
	var out struct {
		Score int  `json:"score"`
		OK    bool `json:"ok"`
	}
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Score != 72 || !out.OK {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestExtractObjectNoJSON(t *testing.T) {
	if _, err := ExtractObject("I could not analyze the image."); err == nil {
		t.Fatal("expected error for output without JSON")
	}
}

func TestExtractObjectInvalidJSON(t *testing.T) {
	if _, err := ExtractObject("{score: not json}"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
