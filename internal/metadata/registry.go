package metadata

import (
	"sort"
	"sync"
)

// TableRef identifies a table within an app.
type TableRef struct {
	AppName string `json:"app_name"`
	TableID string `json:"table_id"`
}

type Registry struct {
	mu      sync.RWMutex
	columns map[TableRef]*OrderedColumns
	groups  map[TableRef][]*ColorRuleGroup
}

func NewRegistry() *Registry {
	return &Registry{
		columns: make(map[TableRef]*OrderedColumns),
		groups:  make(map[TableRef][]*ColorRuleGroup),
	}
}

// Columns returns the resolved columns of a table, or nil.
func (r *Registry) Columns(appName, tableID string) *OrderedColumns {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.columns[TableRef{appName, tableID}]
}

// AllTables returns every table with registered columns, sorted by app and table.
func (r *Registry) AllTables() []TableRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]TableRef, 0, len(r.columns))
	for ref := range r.columns {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].AppName != refs[j].AppName {
			return refs[i].AppName < refs[j].AppName
		}
		return refs[i].TableID < refs[j].TableID
	})
	return refs
}

// Groups returns the rule groups of a table.
func (r *Registry) Groups(appName, tableID string) []*ColorRuleGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*ColorRuleGroup(nil), r.groups[TableRef{appName, tableID}]...)
}

// Group returns the group of the given type (and element key for column
// groups), or nil.
func (r *Registry) Group(appName, tableID string, typ ColorRuleGroupType, elementKey string) *ColorRuleGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.groups[TableRef{appName, tableID}] {
		if g.Type == typ && g.ElementKey == elementKey {
			return g
		}
	}
	return nil
}

// PutColumns replaces a table's columns. Rule groups are kept.
func (r *Registry) PutColumns(oc *OrderedColumns) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.columns[TableRef{oc.AppName, oc.TableID}] = oc
}

// PutGroup adds or replaces the group with the same type and element key.
func (r *Registry) PutGroup(g *ColorRuleGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := TableRef{g.AppName, g.TableID}
	groups := r.groups[ref]
	for i, existing := range groups {
		if existing.Type == g.Type && existing.ElementKey == g.ElementKey {
			groups[i] = g
			return
		}
	}
	r.groups[ref] = append(groups, g)
}

// RemoveTable drops everything registered for a table.
func (r *Registry) RemoveTable(appName, tableID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := TableRef{appName, tableID}
	delete(r.columns, ref)
	delete(r.groups, ref)
}

// Load replaces all tables and rule groups in the registry.
// Called during startup.
func (r *Registry) Load(columns []*OrderedColumns, groups []*ColorRuleGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.columns = make(map[TableRef]*OrderedColumns, len(columns))
	for _, oc := range columns {
		r.columns[TableRef{oc.AppName, oc.TableID}] = oc
	}

	r.groups = make(map[TableRef][]*ColorRuleGroup)
	for _, g := range groups {
		ref := TableRef{g.AppName, g.TableID}
		r.groups[ref] = append(r.groups[ref], g)
	}
}
