package tmux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alchemmist/lazy-layout/internal/host"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

// parseLayout reads a #{window_layout} string such as
//
//	b25d,160x48,0,0{80x48,0,0,1,79x48,81,0[79x24,81,0,2,79x23,81,25,3]}
//
// into a pane hierarchy. {} holds side-by-side children, [] stacked ones.
// tmux leaves a one-cell border between siblings; it is handed to the
// preceding sibling so children tile their parent exactly.
func parseLayout(s string) (host.Node, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ','); i >= 0 && !strings.ContainsRune(s[:i], 'x') {
		s = s[i+1:]
	}
	p := &layoutParser{in: s}
	n, err := p.cell()
	if err != nil {
		return host.Node{}, fmt.Errorf("parse layout %q: %w", s, err)
	}
	if p.pos != len(p.in) {
		return host.Node{}, fmt.Errorf("parse layout %q: trailing data at %d", s, p.pos)
	}
	closeGaps(&n)
	return n, nil
}

type layoutParser struct {
	in  string
	pos int
}

func (p *layoutParser) cell() (host.Node, error) {
	w, err := p.number()
	if err != nil {
		return host.Node{}, err
	}
	if err := p.expect('x'); err != nil {
		return host.Node{}, err
	}
	h, err := p.number()
	if err != nil {
		return host.Node{}, err
	}
	if err := p.expect(','); err != nil {
		return host.Node{}, err
	}
	x, err := p.number()
	if err != nil {
		return host.Node{}, err
	}
	if err := p.expect(','); err != nil {
		return host.Node{}, err
	}
	y, err := p.number()
	if err != nil {
		return host.Node{}, err
	}
	n := host.Node{Bounds: snapshot.Bounds{Left: x, Top: y, Right: x + w, Bottom: y + h}}

	if p.pos >= len(p.in) {
		return host.Node{}, fmt.Errorf("cell at %d has no pane or children", p.pos)
	}
	var closer byte
	switch p.in[p.pos] {
	case ',':
		p.pos++
		id, err := p.number()
		if err != nil {
			return host.Node{}, err
		}
		n.Pane = host.PaneID("%" + strconv.Itoa(id))
		return n, nil
	case '{':
		n.Orientation, closer = snapshot.SideBySide, '}'
	case '[':
		n.Orientation, closer = snapshot.Stacked, ']'
	default:
		return host.Node{}, fmt.Errorf("unexpected %q at %d", p.in[p.pos], p.pos)
	}
	p.pos++
	for {
		child, err := p.cell()
		if err != nil {
			return host.Node{}, err
		}
		n.Children = append(n.Children, child)
		if p.pos >= len(p.in) {
			return host.Node{}, fmt.Errorf("unterminated split")
		}
		if p.in[p.pos] == closer {
			p.pos++
			return n, nil
		}
		if err := p.expect(','); err != nil {
			return host.Node{}, err
		}
	}
}

func (p *layoutParser) number() (int, error) {
	start := p.pos
	for p.pos < len(p.in) && p.in[p.pos] >= '0' && p.in[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at %d", start)
	}
	return strconv.Atoi(p.in[start:p.pos])
}

func (p *layoutParser) expect(b byte) error {
	if p.pos >= len(p.in) || p.in[p.pos] != b {
		return fmt.Errorf("expected %q at %d", b, p.pos)
	}
	p.pos++
	return nil
}

func closeGaps(n *host.Node) {
	if n.IsLeaf() {
		return
	}
	for i := range n.Children {
		if i+1 < len(n.Children) {
			next, _ := n.Children[i+1].Bounds.Span(n.Orientation)
			extend(&n.Children[i], n.Orientation, next)
		}
		closeGaps(&n.Children[i])
	}
}

// extend moves the far edge of n along o to end, carrying the subtree
// with it.
func extend(n *host.Node, o snapshot.Orientation, end int) {
	start, _ := n.Bounds.Span(o)
	n.Bounds = n.Bounds.WithSpan(o, start, end)
	if n.IsLeaf() {
		return
	}
	if n.Orientation != o {
		for i := range n.Children {
			extend(&n.Children[i], o, end)
		}
		return
	}
	extend(&n.Children[len(n.Children)-1], o, end)
}
