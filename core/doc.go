// Package core contains the canonical client domain contracts, entities, and
// the instrumented request pipeline. Lower-level adapters (auth, transport,
// stores) must depend on this package; core must not depend on them.
package core
