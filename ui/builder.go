package ui

import (
	"slices"

	"github.com/nodeco/nodeco/handler"
	"github.com/nodeco/nodeco/kbj"
)

// RootID is the element id ShowUI takes as the root of a new tree.
const RootID uint8 = 0

// DefaultChildren are attached, in this order, to a root that declared no
// children of its own.
var DefaultChildren = [...]uint8{1, 2, 3}

// Option configures a Builder.
type Option func(*Builder)

// WithUpdater routes CheckForUpdate and ApplyUpdate to u.
func WithUpdater(u handler.Updater) Option {
	return func(b *Builder) { b.updater = u }
}

// Builder assembles a Forest from a program's UI instructions. Elements
// live in a pending table keyed by id until ShowUI attaches them.
type Builder struct {
	pending map[uint8]*Element
	updater handler.Updater
}

// NewBuilder creates a Builder with the log-only updater.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{updater: handler.LogUpdater{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs p's UI and update instructions and returns the resulting
// forest. Scalar instructions are ignored. Each call starts from an empty
// pending table.
func (b *Builder) Build(p *kbj.Program) *Forest {
	b.pending = make(map[uint8]*Element)
	f := &Forest{}
	if p == nil {
		return f
	}

	for _, inst := range p.Instructions {
		switch in := inst.(type) {
		case kbj.CreateUI:
			b.pending[in.ID] = newElement(in)
		case kbj.SetUIProperty:
			logger().Debugf("set property %d=%d on #%d ignored", in.Property, in.Value, in.ID)
		case kbj.OnUIEvent:
			b.bind(in)
		case kbj.AttachChild:
			if parent, ok := b.pending[in.Parent]; ok {
				parent.attach = append(parent.attach, in.Child)
			} else {
				logger().Debugf("attach #%d: parent #%d is not pending", in.Child, in.Parent)
			}
		case kbj.ShowUI:
			if root := b.show(); root != nil {
				f.Roots = append(f.Roots, root)
			}
		case kbj.CheckForUpdate:
			b.updater.CheckForUpdate()
		case kbj.ApplyUpdate:
			b.updater.ApplyUpdate()
		}
	}

	for _, el := range b.pending {
		f.Orphans = append(f.Orphans, el)
	}
	slices.SortFunc(f.Orphans, func(x, y *Element) int { return int(x.ID) - int(y.ID) })
	if len(f.Orphans) > 0 {
		logger().Infof("%d element(s) created but never attached", len(f.Orphans))
	}
	b.pending = nil
	return f
}

func (b *Builder) bind(in kbj.OnUIEvent) {
	el, ok := b.pending[in.ID]
	if !ok {
		logger().Debugf("bind handler %d: element #%d is not pending", in.Handler, in.ID)
		return
	}
	switch in.Event {
	case kbj.EventClick, kbj.EventChange:
		h := in.Handler
		el.Handler = &h
	default:
		logger().Debugf("bind handler %d: %s ignored on #%d", in.Handler, in.Event, in.ID)
	}
}

// show removes the root from the pending table and attaches its children.
// Without a pending root nothing is removed.
func (b *Builder) show() *Element {
	root, ok := b.pending[RootID]
	if !ok {
		logger().Debug("show UI: no root element pending")
		return nil
	}
	delete(b.pending, RootID)

	if len(root.attach) == 0 {
		for _, id := range DefaultChildren {
			b.adopt(root, id)
		}
	} else {
		b.attachChildren(root)
	}
	return root
}

func (b *Builder) attachChildren(parent *Element) {
	for _, id := range parent.attach {
		b.adopt(parent, id)
	}
}

// adopt moves pending element id under parent. An element leaves the
// pending table before its own children are resolved, so cycles end.
func (b *Builder) adopt(parent *Element, id uint8) {
	child, ok := b.pending[id]
	if !ok {
		return
	}
	delete(b.pending, id)
	parent.Children = append(parent.Children, child)
	b.attachChildren(child)
}
