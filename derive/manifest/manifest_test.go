package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tos-network/abiderive/derive/desc"
	abierrors "github.com/tos-network/abiderive/derive/errors"
	"github.com/tos-network/abiderive/derive/model"
	"github.com/tos-network/abiderive/derive/signature"
)

func walletInterface(t *testing.T) *model.Interface {
	t.Helper()
	intf, diags := model.Build(&desc.Description{
		Name: "Wallet",
		Methods: []desc.Method{
			{Name: "constructor", Constructor: true, Args: []desc.Arg{{Name: "owner", Type: "address"}}},
			{Name: "deposit", Payable: true},
			{Name: "withdraw", Args: []desc.Arg{{Name: "amount", Type: "u256"}}, Returns: []string{"bool"}},
			{Name: "Withdrawn", Event: true, Args: []desc.Arg{{Name: "to", Type: "address"}, {Name: "amount", Type: "u256"}}},
		},
	})
	if diags.HasErrors() {
		t.Fatalf("build: %v", diags)
	}
	if diags := signature.Annotate(intf); diags.HasErrors() {
		t.Fatalf("annotate: %v", diags)
	}
	return intf
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(Build(walletInterface(t)))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := fmt.Sprintf(`{
  "name": "Wallet",
  "constructor": {
    "inputs": [
      {
        "name": "owner",
        "type": "address"
      }
    ],
    "payable": false
  },
  "functions": [
    {
      "name": "deposit",
      "inputs": [],
      "outputs": [],
      "payable": true,
      "selector": "%s"
    },
    {
      "name": "withdraw",
      "inputs": [
        {
          "name": "amount",
          "type": "uint256"
        }
      ],
      "outputs": [
        "bool"
      ],
      "payable": false,
      "selector": "%s"
    }
  ],
  "events": [
    {
      "name": "Withdrawn",
      "inputs": [
        {
          "name": "to",
          "type": "address"
        },
        {
          "name": "amount",
          "type": "uint256"
        }
      ]
    }
  ]
}
`, signature.SelectorHex(signature.Selector("deposit()")), signature.SelectorHex(signature.Selector("withdraw(uint256)")))
	if string(data) != want {
		t.Fatalf("unexpected manifest:\n%s\nwant:\n%s", data, want)
	}
}

func TestBuildWithoutConstructorOrItems(t *testing.T) {
	intf := &model.Interface{Name: "Empty"}
	data, err := Encode(Build(intf))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "{\n  \"name\": \"Empty\",\n  \"functions\": [],\n  \"events\": []\n}\n"
	if string(data) != want {
		t.Fatalf("unexpected manifest: %q", data)
	}
}

func TestEncodeDoesNotEscapeHTML(t *testing.T) {
	data, err := Encode(&Manifest{Name: "A<B>&C"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"A<B>&C"`) {
		t.Fatalf("name was escaped: %s", data)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	intf := walletInterface(t)
	data, err := Encode(Build(intf))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Name != "Wallet" || m.Constructor == nil || len(m.Functions) != 2 || len(m.Events) != 1 {
		t.Fatalf("unexpected manifest: %#v", m)
	}
	if m.Functions[0].Name != "deposit" || m.Functions[1].Name != "withdraw" {
		t.Fatalf("function order not preserved: %s, %s", m.Functions[0].Name, m.Functions[1].Name)
	}
	empty, err := Decode([]byte(`{"name":"X"}`))
	if err != nil || empty.Functions == nil || empty.Events == nil {
		t.Fatalf("decode must never yield nil arrays: %#v %v", empty, err)
	}
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEmitToDirSink(t *testing.T) {
	dir := t.TempDir()
	intf := walletInterface(t)
	path, err := Emit(intf, DirSink{TargetDir: dir})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if want := filepath.Join(dir, "json", "Wallet.json"); path != want {
		t.Fatalf("path: got=%s want=%s", path, want)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want, _ := Encode(Build(intf))
	if string(got) != string(want) {
		t.Fatalf("file content mismatch")
	}

	// A second emit truncates the previous file.
	small := &model.Interface{Name: "Wallet"}
	if _, err := Emit(small, DirSink{TargetDir: dir}); err != nil {
		t.Fatalf("re-emit: %v", err)
	}
	got, _ = os.ReadFile(path)
	if strings.Contains(string(got), "deposit") {
		t.Fatalf("stale content left in manifest: %s", got)
	}
}

func TestDirSinkWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "target")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	_, err := Emit(walletInterface(t), DirSink{TargetDir: blocker})
	if !errors.Is(err, abierrors.ErrWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestMemorySink(t *testing.T) {
	var sink MemorySink
	loc, err := Emit(walletInterface(t), &sink)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if loc != "memory:Wallet" {
		t.Fatalf("unexpected location: %s", loc)
	}
	data, ok := sink.Get("Wallet")
	if !ok || !strings.HasSuffix(string(data), "}\n") {
		t.Fatalf("manifest not stored: %q", data)
	}
	if names := sink.Names(); len(names) != 1 || names[0] != "Wallet" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestDirSinkRejectsPathLikeNames(t *testing.T) {
	dir := t.TempDir()
	sink := DirSink{TargetDir: filepath.Join(dir, "target")}
	for _, name := range []string{"../../escape", "sub/Wallet", ""} {
		path, err := Emit(&model.Interface{Name: name}, sink)
		if !errors.Is(err, abierrors.ErrWrite) {
			t.Fatalf("%q: expected write error, got path=%s err=%v", name, path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.json")); !os.IsNotExist(err) {
		t.Fatalf("manifest written outside the target dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "target")); !os.IsNotExist(err) {
		t.Fatalf("target dir created for a rejected name: %v", err)
	}
}
