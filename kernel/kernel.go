// Package kernel embeds the Lua interpreter that owns the game rules. The
// host keeps native caches (terrain, units, sides, pathfinding) in sync with
// the script-side game tables through a small set of engine callbacks, and
// exposes the turn/event surface the front ends drive.
package kernel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/hexcore/engine"
	"github.com/nathoo/hexcore/engine/unitmap"
	"github.com/nathoo/hexcore/gml"
	"github.com/nathoo/hexcore/types"
)

// registryKey addresses the host self-pointer in the interpreter registry.
// It is written exactly once at construction and is the sole route from a
// callback back to the host.
const registryKey = "hexcore.kernel"

// Kernel is the script host. It exclusively owns its interpreter and game
// state for its lifetime.
type Kernel struct {
	L    *lua.LState
	game *engine.GameData
	log  zerolog.Logger

	cmdLog   strings.Builder
	external io.Writer

	nextUnitID  uint32
	turn        int
	currentSide int
	phase       types.Phase
}

// Option configures a Kernel at construction.
type Option func(*Kernel)

// WithLogger installs a structured logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(k *Kernel) { k.log = log }
}

// WithExternalLog mirrors the command log to w from the start.
func WithExternalLog(w io.Writer) Option {
	return func(k *Kernel) { k.external = w }
}

// New builds a host around the given init script: it creates a sandboxed
// interpreter, registers the engine callbacks, runs the script under a
// protected call, fires the preload/prestart/start events, and leaves the
// kernel in the PLAY phase.
func New(script string, opts ...Option) (*Kernel, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	k := &Kernel{
		L:           L,
		log:         zerolog.Nop(),
		turn:        1,
		currentSide: 1,
		phase:       types.PhaseInitial,
	}
	k.game = engine.New(k.refreshUnit, k.areAllied)
	for _, o := range opts {
		o(k)
	}

	ud := L.NewUserData()
	ud.Value = k
	L.G.Registry.RawSetString(registryKey, ud)

	k.openLibraries()
	L.SetGlobal("print", L.NewFunction(k.luaPrint))
	k.registerEngineTable()

	fn, err := L.LoadString(script)
	if err != nil {
		L.Close()
		return nil, loadError(err)
	}
	L.Push(fn)
	if err := L.PCall(0, 0, nil); err != nil {
		L.Close()
		return nil, runtimeError(err)
	}

	for _, ph := range []struct {
		phase types.Phase
		event string
	}{
		{types.PhasePreload, "preload"},
		{types.PhasePrestart, "prestart"},
		{types.PhaseStart, "start"},
	} {
		k.phase = ph.phase
		if res := k.FireEvent(ph.event); res.Err != nil {
			L.Close()
			return nil, fmt.Errorf("kernel: %s event: %w", ph.event, res.Err)
		}
	}
	k.phase = types.PhasePlay

	L.SetTop(0)
	// The script keeps whatever engine references it captured during init;
	// the public surface shrinks to an empty table.
	L.SetGlobal("engine", L.NewTable())

	k.log.Debug().Int("sides", k.game.NSides()).Int("units", k.game.Units.Len()).
		Msg("kernel initialized")
	return k, nil
}

// kernelOf recovers the host from any interpreter (or coroutine) state.
func kernelOf(L *lua.LState) *Kernel {
	ud, _ := L.G.Registry.RawGetString(registryKey).(*lua.LUserData)
	if ud == nil {
		L.RaiseError("no kernel attached to this interpreter")
		return nil
	}
	return ud.Value.(*Kernel)
}

// dispatch adapts a host member to a script-callable function.
func dispatch(member func(*Kernel, *lua.LState) int) lua.LGFunction {
	return func(L *lua.LState) int {
		return member(kernelOf(L), L)
	}
}

// openLibraries loads the sandboxed standard-library subset: base, table,
// string, math, coroutine, debug and os, with os reduced to clock/date/
// time/difftime, debug reduced to traceback/getinfo, and dofile/loadfile
// removed.
func (k *Kernel) openLibraries() {
	L := k.L
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	lua.OpenCoroutine(L)
	lua.OpenDebug(L)
	lua.OpenOs(L)
	L.SetTop(0)

	if tbl, ok := L.GetGlobal(lua.OsLibName).(*lua.LTable); ok {
		pruneTable(tbl, map[string]bool{
			"clock": true, "date": true, "time": true, "difftime": true,
		})
	}
	if tbl, ok := L.GetGlobal(lua.DebugLibName).(*lua.LTable); ok {
		pruneTable(tbl, map[string]bool{
			"traceback": true, "getinfo": true,
		})
	}
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
}

// pruneTable nils every string-keyed entry not in keep.
func pruneTable(tbl *lua.LTable, keep map[string]bool) {
	var drop []string
	tbl.ForEach(func(key, _ lua.LValue) {
		if s, ok := key.(lua.LString); ok && !keep[string(s)] {
			drop = append(drop, string(s))
		}
	})
	for _, name := range drop {
		tbl.RawSetString(name, lua.LNil)
	}
}

// luaPrint is the print replacement: arguments go to the command log,
// tab-separated, mirrored to the external stream when one is set.
func (k *Kernel) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	line := strings.Join(parts, "\t") + "\n"
	k.cmdLog.WriteString(line)
	if k.external != nil {
		io.WriteString(k.external, line)
	}
	return 0
}

// Log returns everything the script has printed so far.
func (k *Kernel) Log() string {
	return k.cmdLog.String()
}

// SetExternalLog mirrors subsequent prints to w; nil disables mirroring.
func (k *Kernel) SetExternalLog(w io.Writer) {
	k.external = w
}

// Game exposes the native game-state caches for read queries.
func (k *Kernel) Game() *engine.GameData {
	return k.game
}

// Close releases the interpreter. The kernel must not be used afterwards.
func (k *Kernel) Close() {
	k.phase = types.PhaseEnd
	k.L.Close()
}

// afterScript restores the invariants the script may have disturbed: the
// stack is cleared and every unit record is marked stale.
func (k *Kernel) afterScript() {
	k.game.Units.MarkAllDirty()
	k.L.SetTop(0)
}

// Execute compiles and runs a script fragment under a protected call. The
// result flags are conservative: code that ran at all is assumed to have
// changed state and be non-undoable.
func (k *Kernel) Execute(code string) EventResult {
	fn, err := k.L.LoadString(code)
	if err != nil {
		return EventResult{Err: loadError(err), Undoable: true}
	}
	k.L.Push(fn)
	err = k.L.PCall(0, 0, nil)
	k.afterScript()
	if err != nil {
		return EventResult{Err: runtimeError(err), GameStateChanged: true}
	}
	return EventResult{GameStateChanged: true}
}

// callGlobal invokes a script-defined global function under a protected
// call. found is false when the global is not a function.
func (k *Kernel) callGlobal(name string, args ...lua.LValue) (ret lua.LValue, found bool, err error) {
	fn := k.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, false, nil
	}
	if err := k.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		k.afterScript()
		return lua.LNil, true, runtimeError(err)
	}
	ret = k.L.Get(-1)
	k.afterScript()
	return ret, true, nil
}

// eventResult folds a handler's return value into the conservative flags:
// only an explicit false counts as "nothing changed".
func eventResult(ret lua.LValue, err error) EventResult {
	if err != nil {
		return EventResult{Err: err, GameStateChanged: true}
	}
	if ret == lua.LFalse {
		return EventResult{Undoable: true}
	}
	return EventResult{GameStateChanged: true}
}

// FireEvent dispatches a named event to the script's fire_event handler. A
// script without one ignores all events.
func (k *Kernel) FireEvent(name string) EventResult {
	ret, found, err := k.callGlobal("fire_event", lua.LString(name))
	if !found {
		return EventResult{Undoable: true}
	}
	k.log.Debug().Str("event", name).Msg("event fired")
	return eventResult(ret, err)
}

// DoCommand hands a command config to the script's do_command handler.
func (k *Kernel) DoCommand(cfg gml.Config) EventResult {
	tbl := configToLua(k.L, cfg)
	ret, found, err := k.callGlobal("do_command", tbl)
	if !found {
		return EventResult{Err: errors.New("kernel: script defines no do_command"), Undoable: true}
	}
	return eventResult(ret, err)
}

// ExecuteAITurn runs the script's AI for the current side. It fails when
// the side is not AI-controlled.
func (k *Kernel) ExecuteAITurn() EventResult {
	ctrl := k.SideController(k.currentSide)
	if ctrl != types.ControllerAI && ctrl != types.ControllerNetworkAI {
		return EventResult{
			Err:      fmt.Errorf("kernel: side %d is %s, not AI", k.currentSide, ctrl),
			Undoable: true,
		}
	}
	ret, found, err := k.callGlobal("execute_ai_turn")
	if !found {
		return EventResult{Err: errors.New("kernel: script defines no execute_ai_turn"), Undoable: true}
	}
	return eventResult(ret, err)
}

// EndTurn passes play to the next side, advancing the turn counter when the
// rotation wraps. The ally cache is only valid within a turn and is cleared
// here.
func (k *Kernel) EndTurn() EventResult {
	if !k.CanEndTurn() {
		return EventResult{Err: errors.New("kernel: cannot end turn now"), Undoable: true}
	}
	ret, found, err := k.callGlobal("end_turn")
	res := EventResult{GameStateChanged: true}
	if found {
		res = eventResult(ret, err)
		res.GameStateChanged = true
		res.Undoable = false
		if res.Err != nil {
			return res
		}
	}

	sides := k.game.NSides()
	if sides < 1 {
		sides = 1
	}
	k.currentSide++
	if k.currentSide > sides {
		k.currentSide = 1
		k.turn++
	}
	k.game.Sides.ClearAllyCache()
	k.game.Units.MarkAllDirty()
	k.log.Debug().Int("turn", k.turn).Int("side", k.currentSide).Msg("turn advanced")
	return res
}

// TurnNumber returns the 1-based turn counter.
func (k *Kernel) TurnNumber() int {
	return k.turn
}

// CurrentSidePlaying returns the side whose turn it is.
func (k *Kernel) CurrentSidePlaying() int {
	return k.currentSide
}

// NTeams returns the number of constructed sides.
func (k *Kernel) NTeams() int {
	return k.game.NSides()
}

// CanEndTurn reports whether the turn may end now. Outside the PLAY phase
// it never may; within it the script's can_end_turn handler (when defined)
// has the last word.
func (k *Kernel) CanEndTurn() bool {
	if k.phase != types.PhasePlay {
		return false
	}
	ret, found, err := k.callGlobal("can_end_turn")
	if !found {
		return true
	}
	if err != nil {
		return false
	}
	return lua.LVAsBool(ret)
}

// Phase returns the lifecycle phase.
func (k *Kernel) Phase() types.Phase {
	return k.phase
}

// SideResult reads a side's outcome from the script's Sides table:
// Sides[n].result is "victory" or "defeat"; anything else is NONE.
func (k *Kernel) SideResult(side int) types.SideResult {
	sidesTbl, ok := k.L.GetGlobal("Sides").(*lua.LTable)
	if !ok {
		return types.ResultNone
	}
	entry, ok := sidesTbl.RawGetInt(side).(*lua.LTable)
	if !ok {
		return types.ResultNone
	}
	switch getString(entry, "result") {
	case "victory":
		return types.ResultVictory
	case "defeat":
		return types.ResultDefeat
	}
	return types.ResultNone
}

// SideController returns who plays a side.
func (k *Kernel) SideController(side int) types.Controller {
	if s, ok := k.game.SideInfo[side]; ok {
		return s.Controller
	}
	return types.ControllerEmpty
}

// IsOnMap reports whether l has terrain.
func (k *Kernel) IsOnMap(l types.Loc) bool {
	return k.game.IsOnMap(l)
}

// IsAdjacent reports hex adjacency.
func (k *Kernel) IsAdjacent(a, b types.Loc) bool {
	return k.game.Topo.Adjacent(a, b)
}

// IsFogged reports ally-adjusted fog at l for a side.
func (k *Kernel) IsFogged(l types.Loc, side int) bool {
	return k.game.Sides.AllyAdjustedFog(l, side)
}

// IsShrouded reports ally-adjusted shroud at l for a side.
func (k *Kernel) IsShrouded(l types.Loc, side int) bool {
	return k.game.Sides.AllyAdjustedShroud(l, side)
}

// Evaluate compiles `return <code>` in a read-only context (a convention
// the script is trusted to honor), with the global viewing_side set for the
// duration, and bridges the resulting table back as a config.
func (k *Kernel) Evaluate(code string, side int) (gml.Config, error) {
	fn, err := k.L.LoadString("return " + code)
	if err != nil {
		return nil, loadError(err)
	}
	prev := k.L.GetGlobal("viewing_side")
	k.L.SetGlobal("viewing_side", lua.LNumber(side))
	defer k.L.SetGlobal("viewing_side", prev)

	k.L.Push(fn)
	if err := k.L.PCall(0, 1, nil); err != nil {
		k.L.SetTop(0)
		return nil, runtimeError(err)
	}
	ret := k.L.Get(-1)
	k.L.Pop(1)
	return configFromLua(ret)
}

// ReadReport returns the named display report for a viewing side.
func (k *Kernel) ReadReport(name string, side int) (gml.Config, error) {
	return k.Evaluate("themes."+name, side)
}

// areAllied is the sides-cache miss handler: two sides are allied when
// their script-side team lists intersect. Sides[n].teams is a
// comma-separated string; whitespace around names is ignored.
func (k *Kernel) areAllied(a, b int) (bool, error) {
	teamsA, err := k.sideTeams(a)
	if err != nil {
		return false, err
	}
	teamsB, err := k.sideTeams(b)
	if err != nil {
		return false, err
	}
	for _, t := range teamsA {
		for _, u := range teamsB {
			if t == u {
				return true, nil
			}
		}
	}
	return false, nil
}

func (k *Kernel) sideTeams(side int) ([]string, error) {
	sidesTbl, ok := k.L.GetGlobal("Sides").(*lua.LTable)
	if !ok {
		return nil, errors.New("kernel: Sides global is not a table")
	}
	entry, ok := sidesTbl.RawGetInt(side).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("kernel: Sides[%d] is not a table", side)
	}
	raw, ok := entry.RawGetString("teams").(lua.LString)
	if !ok {
		return nil, nil
	}
	return splitTeams(string(raw)), nil
}

// refreshUnit is the unit-index refresh hook: it reads the script's
// Units[id] entry. A missing entry means the unit is gone.
func (k *Kernel) refreshUnit(id uint32) (unitmap.State, bool) {
	unitsTbl, ok := k.L.GetGlobal("Units").(*lua.LTable)
	if !ok {
		return unitmap.State{}, false
	}
	entry, ok := unitsTbl.RawGetInt(int(id)).(*lua.LTable)
	if !ok {
		return unitmap.State{}, false
	}
	return unitmap.State{
		Loc:      types.Loc{X: getInt(entry, "x", 0), Y: getInt(entry, "y", 0)},
		Side:     getInt(entry, "side", 0),
		Hidden:   getBool(entry, "hidden", false),
		EmitsZoC: getBool(entry, "emits_zoc", false),
	}, true
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or def if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getInt returns an integer field from a Lua table, or def if missing.
func getInt(tbl *lua.LTable, key string, def int) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return def
}
