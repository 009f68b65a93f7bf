// Package engine is the composition root that assembles kata's agents from a
// YAML roster and exposes them through a frontend-agnostic API. Frontends
// (the CLI, A2A servers) interact with Engine and Session types, observe
// activity through an EventBus, and never wire models, toolboxes or
// delegation themselves.
package engine
