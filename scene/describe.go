package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/Luzifer/soi-extract/binio"
	"github.com/Luzifer/soi-extract/soi"
	"github.com/Luzifer/soi-extract/toc"
)

// Describe writes the scene description entry of a component. Only
// renderable and collision models have an entry, other kinds are
// silently ignored.
func (i *Index) Describe(w io.Writer, c toc.Component) error {
	switch c.Kind {
	case toc.KindRenderableModel:
		m, err := i.ResolveModel(c.Section, c.ID, c.InstanceID)
		if err != nil {
			return err
		}
		return writeEntry(w, "SLT="+m.Info.Name(), m.Info, m.Parameters)

	case toc.KindCollisionModel:
		m, err := i.ResolveCollisionModel(c.Section, c.ID, c.InstanceID)
		if err != nil {
			return err
		}
		return writeEntry(w, "COL="+m.Info.Name()+".col", m.Info, m.Parameters)

	default:
		return nil
	}
}

// Dump writes the description of all components in TOC order.
// Components without header are left out and reported together once
// all other entries are written.
func (i *Index) Dump(w io.Writer) error {
	var misses []error
	for _, c := range i.TOC.Components() {
		err := i.Describe(w, c)
		switch {
		case err == nil:
		case errors.Is(err, ErrLookupMiss):
			misses = append(misses, fmt.Errorf("describing %q: %w", c.Path, err))
		default:
			return fmt.Errorf("describing %q: %w", c.Path, err)
		}
	}
	return errors.Join(misses...)
}

func writeEntry(w io.Writer, title string, info soi.ModelInfo, params []soi.Parameter) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, title)
	fmt.Fprintf(bw, "Position=%s\n", formatVector(info.Position))
	fmt.Fprintf(bw, "LookVector=%s\n", formatVector(info.LookVector))
	fmt.Fprintf(bw, "UpVector=%s\n", formatVector(info.UpVector))
	for _, p := range params {
		fmt.Fprintln(bw, p.String())
	}
	fmt.Fprintln(bw)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing scene entry: %w", err)
	}
	return nil
}

func formatVector(v binio.Vec4) string {
	return fmt.Sprintf("%g %g %g %g", v[0], v[1], v[2], v[3])
}
