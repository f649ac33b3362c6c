package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"amphialign/pkg/align"
	"amphialign/pkg/contract"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFactories 遍历注册表入口。
func TestFactories(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		if _, err := Reader["corpus"](json.RawMessage(`{"corpus_dir":"x","langs":{"source":"en","target":"th"}}`)); err != nil {
			t.Fatalf("reader: %v", err)
		}
		if _, err := Reader["corpus"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("reader 未对未知字段报错")
		}
	})
	t.Run("exporter", func(t *testing.T) {
		if _, err := Exporter["jsonl"](json.RawMessage(`{}`)); err != nil {
			t.Fatalf("exporter: %v", err)
		}
		if _, err := Exporter["jsonl"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("exporter 未对未知字段报错")
		}
	})
	t.Run("writer", func(t *testing.T) {
		tmp := t.TempDir()
		if _, err := Writer["fs"](json.RawMessage(fmt.Sprintf(`{"output_dir":%q}`, tmp))); err != nil {
			t.Fatalf("writer: %v", err)
		}
		if _, err := Writer["fs"](json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"x":1}`, tmp))); err == nil {
			t.Fatalf("writer 未对未知字段报错")
		}
		if _, err := Writer["fs"](json.RawMessage(`{}`)); !errors.Is(err, contract.ErrInvalidInput) {
			t.Fatalf("缺少 output_dir 应为 ErrInvalidInput: %v", err)
		}
	})
}

func TestAlignerFactory(t *testing.T) {
	tests := []struct {
		raw  string
		want []align.Strategy
	}{
		{``, align.DefaultStrategies()},
		{`{}`, align.DefaultStrategies()},
		{`{"strategies":["width","identity"]}`, []align.Strategy{align.WidthFold, align.Identity}},
	}
	for _, tt := range tests {
		a, err := Aligner["greedy"](json.RawMessage(tt.raw))
		if err != nil {
			t.Fatalf("%q: %v", tt.raw, err)
		}
		got := a.(*align.Aligner).Strategies()
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%q: got %v want %v", tt.raw, got, tt.want)
		}
	}
	if _, err := Aligner["greedy"](json.RawMessage(`{"strategies":["nfkc"]}`)); err == nil {
		t.Fatalf("未知策略应报错")
	}
	a, _ := Aligner["greedy"](nil)
	toks, err := a.Align("AB, C", []string{"AB", "C"})
	if err != nil || len(toks) != 2 || toks[1].Start != 4 {
		t.Fatalf("align: %v %v", toks, err)
	}
}
