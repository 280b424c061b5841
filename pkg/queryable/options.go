package queryable

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/rewrite"
)

type settings struct {
	rewriter   expr.Visitor
	logger     zerolog.Logger
	library    expr.Library
	remover    func(any) error
	removeType reflect.Type
	strict     bool
}

func newSettings(opts []Option) *settings {
	s := &settings{
		rewriter: rewrite.Identity{},
		logger:   zerolog.Nop(),
		library:  Operators(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a root queryable
type Option func(*settings)

// WithRewriter selects the tree rewriter run before every execution.
// The default rewriter changes nothing.
func WithRewriter(v expr.Visitor) Option {
	return func(s *settings) {
		if v == nil {
			v = rewrite.Identity{}
		}
		s.rewriter = v
	}
}

// WithPatternMatch rewrites the provider's ILike and Like operators
func WithPatternMatch(methods ...string) Option {
	return WithRewriter(rewrite.PatternMatch{Methods: methods})
}

// WithLogger sets the logger execution events are written to
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithOperators makes extra static methods available to executed trees
func WithOperators(lib expr.Library) Option {
	return func(s *settings) { s.library = s.library.Merge(lib) }
}

// WithRemoveFunc supplies the callback bulk deletes use to remove an entity
// from the backing sequence. It must take the root element type.
func WithRemoveFunc[T any](fn func(T)) Option {
	return func(s *settings) {
		if fn == nil {
			s.remover, s.removeType = nil, nil
			return
		}
		s.removeType = reflect.TypeFor[T]()
		s.remover = func(v any) error {
			item, ok := v.(T)
			if !ok {
				return fmt.Errorf("%w: cannot remove %T as %s", qerrors.ErrInvalidCast, v, reflect.TypeFor[T]())
			}
			fn(item)
			return nil
		}
	}
}

// WithStrictRemoval makes bulk deletes fail when no removal callback is set.
// Without it a delete reports the affected count and leaves entities in place.
func WithStrictRemoval() Option {
	return func(s *settings) { s.strict = true }
}

// WithConfig applies a loaded Config
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		if cfg.PatternMatch {
			s.rewriter = rewrite.PatternMatch{Methods: cfg.PatternMethods}
		}
		if cfg.StrictRemoval {
			s.strict = true
		}
		if cfg.LogLevel != "" {
			if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				s.logger = s.logger.Level(level)
			}
		}
	}
}
