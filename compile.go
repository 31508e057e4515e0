// Package abiderive compiles interface descriptions into call dispatchers,
// remote-call clients and JSON ABI manifests.
//
// A compilation pass builds the interface model, annotates it with canonical
// signatures and selectors, and writes the manifest. The returned Artifacts
// construct dispatchers and clients over the finished model.
package abiderive

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/tos-network/abiderive/derive/client"
	"github.com/tos-network/abiderive/derive/desc"
	"github.com/tos-network/abiderive/derive/diag"
	"github.com/tos-network/abiderive/derive/dispatch"
	abierrors "github.com/tos-network/abiderive/derive/errors"
	"github.com/tos-network/abiderive/derive/manifest"
	"github.com/tos-network/abiderive/derive/model"
	"github.com/tos-network/abiderive/derive/signature"
)

// Options controls one compilation pass.
type Options struct {
	// Endpoint names the dispatcher. It is required.
	Endpoint string
	// Client names the remote-call client. Empty disables client generation.
	Client string
	// Manifest receives the encoded manifest. Nil skips writing it.
	Manifest manifest.Sink
	// Logger defaults to the package logger.
	Logger *zap.Logger
}

// Artifacts is the result of a successful compilation pass.
type Artifacts struct {
	Interface    *model.Interface
	Endpoint     string
	Client       string
	Manifest     *manifest.Manifest
	ManifestPath string

	logger *zap.Logger
}

// Compile runs a compilation pass over d.
func Compile(d *desc.Description, opts Options) (*Artifacts, error) {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		name := ""
		if d != nil {
			name = d.Name
		}
		return nil, diag.Diagnostics{diag.Errorf(diag.CodeDescMissingEndpoint, name, "endpoint name is required")}
	}

	intf, diags := model.Build(d)
	if diags.HasErrors() {
		log.Debug("description rejected", zap.Int("diagnostics", len(diags)), zap.Error(diags))
		return nil, diags
	}
	if diags := signature.Annotate(intf); diags.HasErrors() {
		log.Debug("signature annotation failed",
			zap.String("interface", intf.Name),
			zap.Int("diagnostics", len(diags)),
			zap.Error(diags))
		return nil, diags
	}

	out := &Artifacts{
		Interface: intf,
		Endpoint:  endpoint,
		Client:    strings.TrimSpace(opts.Client),
		Manifest:  manifest.Build(intf),
		logger:    log,
	}
	if opts.Manifest != nil {
		path, err := manifest.Emit(intf, opts.Manifest)
		if err != nil {
			return nil, err
		}
		out.ManifestPath = path
	}

	log.Info("interface compiled",
		zap.String("interface", intf.Name),
		zap.String("endpoint", out.Endpoint),
		zap.String("client", out.Client),
		zap.Int("functions", len(out.Manifest.Functions)),
		zap.Int("events", len(out.Manifest.Events)),
		zap.String("manifest", out.ManifestPath))
	return out, nil
}

// CompileBytes compiles a YAML or JSON description held in memory.
func CompileBytes(data []byte, opts Options) (*Artifacts, error) {
	d, err := desc.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return Compile(d, opts)
}

// CompileFile compiles the YAML or JSON description at path.
func CompileFile(path string, opts Options) (*Artifacts, error) {
	d, err := desc.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := Compile(d, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// NewDispatcher builds the endpoint dispatcher over the compiled interface.
func (a *Artifacts) NewDispatcher(h dispatch.Handlers, opts ...dispatch.Option) (*dispatch.Dispatcher, error) {
	all := append([]dispatch.Option{dispatch.WithLogger(a.logger.Named(a.Endpoint))}, opts...)
	return dispatch.New(a.Interface, h, all...)
}

// NewClient builds the remote-call client. It fails when the pass was run
// without a client name.
func (a *Artifacts) NewClient(rt client.Runtime, address common.Address) (*client.Client, error) {
	if a.Client == "" {
		return nil, abierrors.ErrClientDisabled.WithDetail("interface %s was compiled without a client", a.Interface.Name)
	}
	return client.New(a.Interface, rt, address), nil
}
