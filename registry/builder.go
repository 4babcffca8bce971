package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sghaida/vdto/argument"
	"github.com/sghaida/vdto/catalog"
	"github.com/sghaida/vdto/container"
	"github.com/sghaida/vdto/locator"
	"github.com/sghaida/vdto/proxy"
	"github.com/sghaida/vdto/version"
)

// ProxyFactory turns a class into something instantiable, proxied or not.
// *proxy.Factory implements it.
type ProxyFactory interface {
	GenerateProxy(class *catalog.Class, opts ...proxy.GenerateOption) (proxy.Instantiator, error)
}

// Builder assembles a Registry from a catalog namespace.
type Builder struct {
	namespace string
	cat       catalog.Catalog
	excluded  map[string]bool
	proxies   ProxyFactory
	resolvers []argument.ValueResolver
	cache     locator.Cache
	cmp       version.Comparator
	logger    *zap.Logger
	config    *Config
}

// NewBuilder starts a registry over the classes of cat under namespace.
func NewBuilder(namespace string, cat catalog.Catalog) *Builder {
	return &Builder{
		namespace: namespace,
		cat:       cat,
		excluded:  map[string]bool{},
		logger:    zap.NewNop(),
	}
}

// ExcludeInterface keeps iface out of the registry.
func (b *Builder) ExcludeInterface(iface string) *Builder {
	b.excluded[iface] = true
	return b
}

// WithProxyFactory sets the proxy factory. Without one, classes are
// instantiated as they are.
func (b *Builder) WithProxyFactory(f ProxyFactory) *Builder {
	b.proxies = f
	return b
}

// WithArgumentValueResolver adds a constructor argument resolver. Resolvers
// added later take precedence over earlier ones.
func (b *Builder) WithArgumentValueResolver(r argument.ValueResolver) *Builder {
	b.resolvers = append([]argument.ValueResolver{r}, b.resolvers...)
	return b
}

// WithServiceContainer resolves constructor arguments from c by type name.
func (b *Builder) WithServiceContainer(c container.Container) *Builder {
	return b.WithArgumentValueResolver(argument.NewContainerResolver(c))
}

// WithCache memoizes the floor lookups of every locator in c.
func (b *Builder) WithCache(c locator.Cache) *Builder {
	b.cache = c
	return b
}

// WithComparator sets the version comparator of every locator.
func (b *Builder) WithComparator(c version.Comparator) *Builder {
	b.cmp = c
	return b
}

// WithLogger sets the logger handed to the locators and the default proxy factory.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithConfig applies cfg: its namespace (when set) and exclusions now, its
// cache at Build unless WithCache was used.
func (b *Builder) WithConfig(cfg *Config) *Builder {
	if cfg == nil {
		return b
	}
	if cfg.Namespace != "" {
		b.namespace = cfg.Namespace
	}
	for _, iface := range cfg.Exclude {
		b.excluded[iface] = true
	}
	b.config = cfg
	return b
}

// Build scans the catalog and returns the registry.
func (b *Builder) Build() (*Registry, error) {
	if b.cat == nil {
		return nil, fmt.Errorf("registry: no catalog for namespace %q", b.namespace)
	}

	cache := b.cache
	if cache == nil && b.config != nil {
		c, err := b.config.NewCache(b.logger)
		if err != nil {
			return nil, err
		}
		cache = c
	}

	proxies := b.proxies
	if proxies == nil {
		proxies = proxy.NewFactory(proxy.WithCatalog(b.cat), proxy.WithLogger(b.logger))
	}
	resolver := argument.Default(b.resolvers...)

	scan, err := Scan(b.cat, b.namespace, b.excluded)
	if err != nil {
		return nil, err
	}

	opts := []locator.Option{locator.WithLogger(b.logger), locator.WithComparator(b.cmp)}
	if cache != nil {
		opts = append(opts, locator.WithCache(cache))
	}

	locators := map[string]LocatorFunc{}
	for iface, versions := range scan.ModelsByInterface {
		if !scan.HasInterface(iface) {
			continue
		}

		factories := make(map[string]locator.Factory, len(versions))
		for v, className := range versions {
			factories[v] = b.factory(className, proxies, resolver)
		}
		locators[iface] = func() *locator.Locator {
			return locator.New(iface, factories, opts...)
		}
		b.logger.Debug("registry interface", zap.String("interface", iface), zap.Int("versions", len(versions)))
	}

	b.logger.Info("registry built",
		zap.String("namespace", b.namespace),
		zap.Int("interfaces", len(locators)),
		zap.Int("excluded", len(b.excluded)),
	)
	return New(locators), nil
}

func (b *Builder) factory(className string, proxies ProxyFactory, resolver *argument.Resolver) locator.Factory {
	return func(context.Context) (any, error) {
		class, ok := b.cat.Lookup(className)
		if !ok {
			return nil, fmt.Errorf("registry: class %q vanished from the catalog", className)
		}

		inst, err := proxies.GenerateProxy(class)
		if err != nil {
			return nil, fmt.Errorf("registry: proxy %q: %w", className, err)
		}

		args, err := resolver.Arguments(class.Constructor)
		if err != nil {
			return nil, err
		}
		return inst.New(args...)
	}
}
