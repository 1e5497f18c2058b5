package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/Luzifer/go_helpers/v2/str"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Luzifer/soi-extract/blob"
	"github.com/Luzifer/soi-extract/collision"
	"github.com/Luzifer/soi-extract/preview"
	"github.com/Luzifer/soi-extract/scene"
	"github.com/Luzifer/soi-extract/soi"
	"github.com/Luzifer/soi-extract/texture"
	"github.com/Luzifer/soi-extract/toc"
)

type (
	options struct {
		extract   bool
		dumpScene bool
		gltf      bool
		failFast  bool
		workers   int
		filter    []string
	}

	extractor struct {
		index  *scene.Index
		layout collision.Layout
		dest   string
		opts   options
		logger *logrus.Entry

		extracted, skipped, failed atomic.Int64
	}
)

var errSkipped = errors.New("component kind is not extracted")

func runJob(j job, opts options, logger *logrus.Entry) error {
	idx, err := scene.Open(j.TOC, j.SOI, soi.Options{})
	if err != nil {
		return fmt.Errorf("opening scene: %w", err)
	}

	if !opts.extract {
		for _, c := range idx.TOC.Components() {
			if !wanted(c, opts.filter) {
				continue
			}
			fmt.Printf("%s\t%s\n", c.Kind, c.Path) //nolint:forbidigo
		}
		return nil
	}

	layout, err := collision.ParseLayout(j.Layout)
	if err != nil {
		return fmt.Errorf("parsing collision layout: %w", err)
	}

	if opts.dumpScene {
		if err = dumpScene(idx, j); err != nil {
			if opts.failFast {
				return fmt.Errorf("dumping scene: %w", err)
			}
			logger.WithError(err).Error("Dumping scene")
		}
	}

	f, err := os.Open(j.STR)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	e := &extractor{
		index:  idx,
		layout: layout,
		dest:   j.Dest,
		opts:   opts,
		logger: logger,
	}

	r := blob.NewReader(f)
	for _, s := range idx.TOC.Sections {
		if err = e.processSection(context.Background(), r, s); err != nil {
			return fmt.Errorf("processing section %d: %w", s.ID, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"extracted": e.extracted.Load(),
		"skipped":   e.skipped.Load(),
		"failed":    e.failed.Load(),
	}).Info("Scene extracted")

	return nil
}

// dumpScene writes the scene description. Entries without header are
// left out, their lookup errors are returned after the file is written.
func dumpScene(idx *scene.Index, j job) error {
	buf := new(bytes.Buffer)
	dumpErr := idx.Dump(buf)

	name := strings.TrimSuffix(filepath.Base(j.TOC), filepath.Ext(j.TOC)) + ".scn"
	if err := writeOutput(filepath.Join(j.Dest, name), buf.Bytes()); err != nil {
		return err
	}

	return dumpErr
}

func (e *extractor) processSection(ctx context.Context, r *blob.Reader, s *toc.Section) error {
	if !slices.ContainsFunc(s.Components(), func(c toc.Component) bool { return wanted(c, e.opts.filter) }) {
		// Nothing selected, don't inflate the section
		return nil
	}

	data, err := r.ReadSection(s)
	if err != nil {
		return fmt.Errorf("reading section: %w", err)
	}

	payloads, err := data.Payloads(s)
	if err != nil {
		return fmt.Errorf("slicing payloads: %w", err)
	}

	return e.processPayloads(ctx, payloads)
}

// processPayloads extracts the selected payloads on up to opts.workers
// goroutines. Failures are logged and counted, with failFast the first
// one cancels the remaining components and is returned.
func (e *extractor) processPayloads(ctx context.Context, payloads []blob.Payload) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)

	for _, p := range payloads {
		if !wanted(p.Component, e.opts.filter) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		p := p
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := e.processComponent(p); err != nil && e.opts.failFast {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func (e *extractor) processComponent(p blob.Payload) error {
	c := p.Component
	logger := e.logger.WithFields(logrus.Fields{
		"section":   c.Section,
		"component": c.ID,
		"kind":      c.Kind,
		"path":      c.Path,
	})

	files, err := e.convert(p)
	switch {
	case errors.Is(err, errSkipped):
		e.skipped.Add(1)
		logger.Debug("Component skipped")
		return nil

	case err != nil:
		e.failed.Add(1)
		logger.WithError(err).Error("Extracting component")
		return fmt.Errorf("extracting %s: %w", c.Path, err)
	}

	for _, out := range files {
		if err = writeOutput(out.path, out.data); err != nil {
			e.failed.Add(1)
			logger.WithError(err).Error("Writing component")
			return fmt.Errorf("writing %s: %w", out.path, err)
		}
	}

	e.extracted.Add(1)
	logger.Info("Component extracted")
	return nil
}

type outputFile struct {
	path string
	data []byte
}

// convert produces the output files for a component without touching
// the filesystem
func (e *extractor) convert(p blob.Payload) ([]outputFile, error) {
	c := p.Component
	buf := new(bytes.Buffer)

	switch c.Kind {
	case toc.KindCollisionModel:
		m, err := e.index.ResolveCollisionModel(c.Section, c.ID, c.InstanceID)
		if err != nil {
			return nil, err
		}

		body, err := m.Header.DecodePayload(p.Data, e.layout)
		if err != nil {
			return nil, fmt.Errorf("decoding payload: %w", err)
		}
		if err = m.Header.Encode(buf, body); err != nil {
			return nil, fmt.Errorf("encoding collision model: %w", err)
		}

		files := []outputFile{{outputPath(e.dest, c.Path, ".gol"), buf.Bytes()}}
		if !e.opts.gltf {
			return files, nil
		}

		glb := new(bytes.Buffer)
		switch err = preview.Collision(glb, body); {
		case errors.Is(err, preview.ErrNoGeometry):
			return files, nil
		case err != nil:
			return nil, fmt.Errorf("building preview: %w", err)
		}
		return append(files, outputFile{outputPath(e.dest, c.Path, ".glb"), glb.Bytes()}), nil

	case toc.KindRenderableModel:
		m, err := e.index.ResolveModel(c.Section, c.ID, c.InstanceID)
		if err != nil {
			return nil, err
		}
		if err = m.Header.Encode(buf, p.Data); err != nil {
			return nil, fmt.Errorf("encoding model: %w", err)
		}
		return []outputFile{{outputPath(e.dest, c.Path, ".xng"), buf.Bytes()}}, nil

	case toc.KindMotionPack:
		m, err := e.index.ResolveMotionPack(c.Section, c.ID, c.InstanceID)
		if err != nil {
			return nil, err
		}
		if err = m.Header.Encode(buf, p.Data); err != nil {
			return nil, fmt.Errorf("encoding motion pack: %w", err)
		}
		return []outputFile{{outputPath(e.dest, c.Path, ".got"), buf.Bytes()}}, nil

	case toc.KindTexture:
		t, err := e.index.ResolveTexture(c.Section, c.ID, c.InstanceID)
		if err != nil {
			return nil, err
		}

		if t.Static != nil {
			return []outputFile{{outputPath(e.dest, c.Path, ".dds"), t.Static.DDS}}, nil
		}

		if err = (texture.DDSConverter{}).Convert(buf, t.Streaming.Header.Descriptor(), p.Data); err != nil {
			return nil, fmt.Errorf("converting texture: %w", err)
		}
		return []outputFile{{outputPath(e.dest, c.Path, ".dds"), buf.Bytes()}}, nil

	default:
		return nil, errSkipped
	}
}

// sourceExtensions are replaced by the output extension, any other
// suffix of a component path is kept
var sourceExtensions = []string{".col", ".dds", ".gol", ".got", ".mot", ".xgs", ".xng"}

// outputPath maps the component path below dest and sets the output
// extension. Paths can never escape dest.
func outputPath(dest, componentPath, ext string) string {
	p := strings.ReplaceAll(componentPath, `\`, "/")
	if i := strings.Index(p, ":"); i >= 0 {
		p = p[i+1:]
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if str.StringInSlice(strings.ToLower(path.Ext(p)), sourceExtensions) {
		p = strings.TrimSuffix(p, path.Ext(p))
	}

	return filepath.Join(dest, filepath.FromSlash(p+ext))
}

func wanted(c toc.Component, filter []string) bool {
	return len(filter) == 0 || str.StringInSlice(c.Path, filter)
}

func writeOutput(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), dirPermissions); err != nil {
		return fmt.Errorf("creating path: %w", err)
	}

	if err := os.WriteFile(dest, data, filePermissions); err != nil { //#nosec:G306 // extracted files are meant to be read by others
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
