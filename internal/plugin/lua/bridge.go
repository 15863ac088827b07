package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ToLua converts a Go value to its Lua representation. Maps become tables
// keyed by string, slices become array tables, numbers become LNumber.
// Unsupported types convert to their string form.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(ToLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, ToLua(L, item))
		}
		return tbl
	case lua.LValue:
		return val
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

// ToGo converts a Lua value to a Go value. Tables with contiguous integer
// keys starting at 1 become []any; other tables become map[string]any.
// Cyclic tables are cut at the revisit.
func ToGo(v lua.LValue) any {
	return toGoVisited(v, make(map[*lua.LTable]bool))
}

func toGoVisited(v lua.LValue, visited map[*lua.LTable]bool) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case *lua.LTable:
		if visited[val] {
			return nil
		}
		visited[val] = true
		defer delete(visited, val)

		if n := tableArrayLen(val); n >= 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGoVisited(val.RawGetInt(i), visited))
			}
			return arr
		}

		m := make(map[string]any)
		val.ForEach(func(k, item lua.LValue) {
			m[k.String()] = toGoVisited(item, visited)
		})
		return m
	default:
		return val.String()
	}
}

// tableArrayLen returns the array length if the table is a pure array
// (contiguous integer keys from 1), or -1 if it has any other keys. An
// empty table counts as an empty map.
func tableArrayLen(tbl *lua.LTable) int {
	n := tbl.Len()
	if n == 0 {
		return -1
	}
	count := 0
	pure := true
	tbl.ForEach(func(k, _ lua.LValue) {
		count++
		num, ok := k.(lua.LNumber)
		if !ok || float64(num) != float64(int(num)) || int(num) < 1 || int(num) > n {
			pure = false
		}
	})
	if !pure || count != n {
		return -1
	}
	return n
}

// RecordToLua converts a settings record to a Lua table.
func RecordToLua(L *lua.LState, record map[string]any) *lua.LTable {
	tbl := L.NewTable()
	for k, v := range record {
		tbl.RawSetString(k, ToLua(L, v))
	}
	return tbl
}

// RecordToGo converts a Lua table to a settings record. Non-table values
// return an empty record.
func RecordToGo(v lua.LValue) map[string]any {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return map[string]any{}
	}
	record, ok := ToGo(tbl).(map[string]any)
	if !ok {
		// pure array table; store under indices
		record = map[string]any{}
		tbl.ForEach(func(k, item lua.LValue) {
			record[k.String()] = ToGo(item)
		})
	}
	return record
}
