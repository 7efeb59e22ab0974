package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tableview/internal/config"
	"tableview/internal/metadata"
	"tableview/internal/store"
	"tableview/internal/table"
)

type Handler struct {
	store      *store.Store
	registry   *metadata.Registry
	migrator   *store.Migrator
	rules      config.RulesConfig
	maxRows    int
	rawFilters bool
}

func NewHandler(s *store.Store, reg *metadata.Registry, migrator *store.Migrator, cfg *config.Config) *Handler {
	return &Handler{
		store:      s,
		registry:   reg,
		migrator:   migrator,
		rules:      cfg.Rules,
		maxRows:    cfg.Query.MaxRows,
		rawFilters: !cfg.Query.DisableRawFilters,
	}
}

// Operators handles GET /api/_operators
func (h *Handler) Operators(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": metadata.RuleTypeValues()})
}

// ListTables handles GET /api/_tables
func (h *Handler) ListTables(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.registry.AllTables()})
}

// GetColumns handles GET /api/:app/:table/columns
func (h *Handler) GetColumns(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": describeTable(columns)})
}

type putColumnsBody struct {
	Columns []metadata.Column `json:"columns"`
}

// PutColumns handles PUT /api/:app/:table/columns. Rules on columns the new
// declaration no longer stores are dropped in the same transaction.
func (h *Handler) PutColumns(c *fiber.Ctx) error {
	var body putColumnsBody
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError(err)
	}

	columns, err := metadata.NewOrderedColumns(c.Params("app"), c.Params("table"), body.Columns)
	if err != nil {
		return FromError(err)
	}
	if err := store.ValidateColumns(columns); err != nil {
		return FromError(err)
	}

	var pruned []*metadata.ColorRuleGroup
	for _, g := range h.registry.Groups(columns.AppName, columns.TableID) {
		if p, n := g.Prune(columns); n > 0 {
			log.Printf("WARN: dropping %d %s rules of %s/%s on removed columns", n, g.Type, columns.AppName, columns.TableID)
			pruned = append(pruned, p)
		}
	}

	ctx := c.Context()
	if err := h.inTx(ctx, func(q metadata.Querier) error {
		if err := metadata.SaveColumns(ctx, q, h.store.Dialect, columns); err != nil {
			return err
		}
		for _, g := range pruned {
			if err := metadata.SaveRuleGroup(ctx, q, h.store.Dialect, g); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("save columns of %s: %w", columns.TableID, err)
	}
	if err := h.migrator.Migrate(ctx, columns); err != nil {
		return fmt.Errorf("migrate %s: %w", columns.TableID, err)
	}

	h.registry.PutColumns(columns)
	for _, g := range pruned {
		h.registry.PutGroup(g)
	}
	log.Printf("Table %s/%s now has %d columns", columns.AppName, columns.TableID, columns.Len())
	return c.JSON(fiber.Map{"data": describeTable(columns)})
}

// DeleteTable handles DELETE /api/:app/:table. The data table itself is kept.
func (h *Handler) DeleteTable(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}

	ctx := c.Context()
	if err := h.inTx(ctx, func(q metadata.Querier) error {
		return metadata.DeleteTable(ctx, q, h.store.Dialect, columns.AppName, columns.TableID)
	}); err != nil {
		return err
	}

	h.registry.RemoveTable(columns.AppName, columns.TableID)
	return c.JSON(fiber.Map{"data": fiber.Map{"app_name": columns.AppName, "table_id": columns.TableID}})
}

// ListRows handles GET /api/:app/:table/rows. The where and having
// parameters are raw SQL run as given, so they are only for trusted clients;
// query.disable_raw_filters turns them off.
func (h *Handler) ListRows(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}

	qs, err := ParseQuerySpec(c, columns, h.rawFilters)
	if err != nil {
		return err
	}

	tbl, err := FetchTable(c.Context(), h.store.DB, h.store.Dialect, qs, columns, h.maxRows)
	if err != nil {
		return err
	}

	colors, err := EvaluateColorRules(tbl, columns, h.registry.Groups(columns.AppName, columns.TableID))
	if err != nil {
		return FromError(err)
	}

	data := make([]fiber.Map, 0, tbl.Len())
	for i, r := range tbl.Rows() {
		data = append(data, rowJSON(r, colors[i]))
	}

	return c.JSON(fiber.Map{
		"data": data,
		"meta": fiber.Map{
			"sql":   qs.SQL(),
			"count": tbl.Len(),
		},
	})
}

type createRowBody struct {
	ID     string             `json:"_id"`
	Values map[string]*string `json:"values"`
}

// CreateRow handles POST /api/:app/:table/rows
func (h *Handler) CreateRow(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}

	var body createRowBody
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError(err)
	}
	for key := range body.Values {
		if err := checkStored(columns, key); err != nil {
			return err
		}
	}
	if body.ID == "" {
		body.ID = uuid.New().String()
	}

	name := store.DataTableName(columns.AppName, columns.TableID)
	if err := store.InsertRow(c.Context(), h.store.DB, h.store.Dialect, name, body.ID, body.Values); err != nil {
		return FromError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{store.RowIDColumn: body.ID}})
}

// GetRow handles GET /api/:app/:table/rows/:id
func (h *Handler) GetRow(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}

	name := store.DataTableName(columns.AppName, columns.TableID)
	tbl, err := FetchRow(c.Context(), h.store.DB, h.store.Dialect, name, columns, c.Params("id"))
	if err != nil {
		return FromError(err)
	}

	colors, err := EvaluateColorRules(tbl, columns, h.registry.Groups(columns.AppName, columns.TableID))
	if err != nil {
		return FromError(err)
	}
	return c.JSON(fiber.Map{"data": rowJSON(tbl.RowAt(0), colors[0])})
}

// DeleteRow handles DELETE /api/:app/:table/rows/:id
func (h *Handler) DeleteRow(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	name := store.DataTableName(columns.AppName, columns.TableID)
	if err := store.DeleteRow(c.Context(), h.store.DB, h.store.Dialect, name, id); err != nil {
		return FromError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{store.RowIDColumn: id}})
}

// GetRules handles GET /api/:app/:table/rules/:group
func (h *Handler) GetRules(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}
	typ, elementKey, err := h.resolveGroup(c, columns)
	if err != nil {
		return err
	}

	g := h.registry.Group(columns.AppName, columns.TableID, typ, elementKey)
	if g == nil {
		g = &metadata.ColorRuleGroup{AppName: columns.AppName, TableID: columns.TableID, Type: typ, ElementKey: elementKey}
	}
	return c.JSON(fiber.Map{"data": g})
}

type putRulesBody struct {
	Rules []json.RawMessage `json:"rules"`
}

// PutRules handles PUT /api/:app/:table/rules/:group
func (h *Handler) PutRules(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}
	typ, elementKey, err := h.resolveGroup(c, columns)
	if err != nil {
		return err
	}

	var body putRulesBody
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError(err)
	}

	g := &metadata.ColorRuleGroup{AppName: columns.AppName, TableID: columns.TableID, Type: typ, ElementKey: elementKey}
	for _, raw := range body.Rules {
		rule, err := h.decodeRule(raw)
		if err != nil {
			return InvalidPayloadError(err)
		}
		if err := checkStored(columns, rule.ElementKey); err != nil {
			return err
		}
		g.Add(rule)
	}

	if err := h.saveGroup(c.Context(), g); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": g})
}

// DeleteRule handles DELETE /api/:app/:table/rules/:group/:id
func (h *Handler) DeleteRule(c *fiber.Ctx) error {
	columns, err := h.resolveColumns(c)
	if err != nil {
		return err
	}
	typ, elementKey, err := h.resolveGroup(c, columns)
	if err != nil {
		return err
	}

	id := c.Params("id")
	existing := h.registry.Group(columns.AppName, columns.TableID, typ, elementKey)
	if existing == nil || existing.Rule(id) == nil {
		return NewAppError("NOT_FOUND", 404, fmt.Sprintf("Color rule %s not found", id))
	}

	g := cloneGroup(existing)
	g.Remove(id)
	if err := h.saveGroup(c.Context(), g); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": g})
}

// decodeRule reads one rule, filling in the configured colors when the body omits them.
func (h *Handler) decodeRule(raw json.RawMessage) (*metadata.ColorRule, error) {
	var rule metadata.ColorRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["mForeground"]; !ok {
		rule.Foreground = h.rules.DefaultForeground
	}
	if _, ok := fields["mBackground"]; !ok {
		rule.Background = h.rules.DefaultBackground
	}
	return &rule, nil
}

func (h *Handler) saveGroup(ctx context.Context, g *metadata.ColorRuleGroup) error {
	if err := h.inTx(ctx, func(q metadata.Querier) error {
		return metadata.SaveRuleGroup(ctx, q, h.store.Dialect, g)
	}); err != nil {
		return FromError(store.MapError(h.store.Dialect, fmt.Errorf("save %s rules of %s: %w", g.Type, g.TableID, err)))
	}
	h.registry.PutGroup(g)
	return nil
}

func (h *Handler) inTx(ctx context.Context, fn func(q metadata.Querier) error) error {
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// resolveColumns looks up the table named by the route. It never returns
// (nil, nil).
func (h *Handler) resolveColumns(c *fiber.Ctx) (*metadata.OrderedColumns, error) {
	appName, tableID := c.Params("app"), c.Params("table")
	columns := h.registry.Columns(appName, tableID)
	if columns == nil {
		return nil, UnknownTableError(appName, tableID)
	}
	return columns, nil
}

// resolveGroup validates the :group route param; column groups also need
// an element_key query param naming a stored column.
func (h *Handler) resolveGroup(c *fiber.Ctx, columns *metadata.OrderedColumns) (metadata.ColorRuleGroupType, string, error) {
	typ, err := metadata.ParseColorRuleGroupType(c.Params("group"))
	if err != nil {
		return "", "", FromError(err)
	}
	if typ != metadata.GroupColumn {
		return typ, "", nil
	}
	elementKey := c.Query("element_key")
	if elementKey == "" {
		return "", "", NewAppError("INVALID_ARGUMENT", 400, "element_key is required for column rules")
	}
	if err := checkStored(columns, elementKey); err != nil {
		return "", "", err
	}
	return typ, elementKey, nil
}

// checkStored accepts only declared keys that have a data column.
func checkStored(columns *metadata.OrderedColumns, elementKey string) error {
	def, err := columns.Find(elementKey)
	if err != nil {
		return FromError(err)
	}
	if !def.IsUnitOfRetention() {
		return NewAppError("INVALID_ARGUMENT", 400, fmt.Sprintf("Column %s is not stored", elementKey))
	}
	return nil
}

func cloneGroup(g *metadata.ColorRuleGroup) *metadata.ColorRuleGroup {
	out := *g
	out.Rules = make([]*metadata.ColorRule, len(g.Rules))
	for i, r := range g.Rules {
		out.Rules[i] = r.Clone()
	}
	return &out
}

func rowJSON(r *table.Row, colors RowColors) fiber.Map {
	tbl := r.Table()
	values := make(map[string]*string, tbl.Width())
	for j, v := range r.Values() {
		values[tbl.ElementKeyAt(j)] = v
	}
	return fiber.Map{
		store.RowIDColumn: r.ID(),
		"values":          values,
		"colors":          colors,
	}
}

func describeTable(columns *metadata.OrderedColumns) fiber.Map {
	return fiber.Map{
		"app_name":            columns.AppName,
		"table_id":            columns.TableID,
		"columns":             columns.Columns(),
		"retention_columns":   columns.RetentionColumnNames(),
		"data_model":          columns.DataModel(),
		"extended_data_model": columns.ExtendedDataModel(),
		"graph_view":          columns.GraphViewIsPossible(),
		"map_view":            columns.MapViewIsPossible(),
	}
}
