// Package proxy intercepts property writes and method calls of catalog classes
// without touching their source.
//
// A Builder collects, for one target class, the interceptors, wrappers and
// extra members a proxy should carry, and rejects declarations that cannot be
// honored: unknown or inaccessible members, final methods, name collisions,
// duplicated traits. Extensions populate builders on behalf of a Factory.
//
// Go cannot define types at run time, so a Generator turns a builder into a
// dispatch table instead of a subclass. The resulting Class creates Instances
// that hold the target, a value holder for the intercepted properties and one
// pipeline per intercepted method:
//
//	b, _ := proxy.NewBuilder(class, cat.Lookup)
//	_ = b.AddMethodInterceptor("Rename", proxy.MustInterceptor(
//		`log.Println("renaming")`,
//		func(inv *proxy.Invocation) (*proxy.ReturnValue, error) {
//			inv.Args[0] = strings.TrimSpace(inv.Args[0].(string))
//			return nil, nil
//		},
//	))
//	pc, _ := proxy.NewGenerator().Generate(b)
//	inst, _ := pc.Instantiate("ada")
//	_, _ = inst.Call("Rename", "  grace ")
//
// Interceptors run in declaration order before the target method; returning a
// ReturnValue short-circuits the call. Wrappers bracket the whole call, the
// first registered wrapper outermost, with their tails deferred.
//
// Each snippet also carries Go source, syntax-checked at construction, so the
// same builder can be rendered ahead of time by package proxy/codegen.
package proxy
