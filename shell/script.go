package shell

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("fourply_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// luaCommand wraps a shell command as a Lua function taking one string of
// arguments and returning the command output. Errors come back as a string
// starting with "ERROR: ".
func luaCommand(name string, fn func(*ShellController, *shellcmd) (*Response, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		line := strings.TrimSpace(name + " " + L.OptString(1, ""))
		cmd, err := extractFields(line)
		if err != nil {
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		sc := getShell(L)
		r, err := fn(sc, cmd)
		if err != nil {
			log.Err(err).Msg("error-executing-" + name)
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		L.Push(lua.LString(r.message))
		return 1
	}
}

// Solve is fourply_solve: it returns the score as a number followed by the
// full text, or nil and the error text.
func Solve(L *lua.LState) int {
	line := strings.TrimSpace("solve " + L.OptString(1, ""))
	sc := getShell(L)
	cmd, err := extractFields(line)
	if err == nil {
		var r *Response
		r, err = sc.solve(cmd)
		if err == nil {
			L.Push(lua.LNumber(sc.lastScore))
			L.Push(lua.LString(r.message))
			return 2
		}
	}
	log.Err(err).Msg("error-executing-solve")
	L.Push(lua.LNil)
	L.Push(lua.LString("ERROR: " + err.Error()))
	return 2
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	// scripts can require("json") and require("http"), e.g. to fetch test
	// sets or to dump analyses.
	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{Timeout: 30 * time.Second}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("fourply_shell", lsc)
	L.SetGlobal("fourply_load", L.NewFunction(luaCommand("load", (*ShellController).load)))
	L.SetGlobal("fourply_play", L.NewFunction(luaCommand("play", (*ShellController).play)))
	L.SetGlobal("fourply_show", L.NewFunction(luaCommand("show", (*ShellController).show)))
	L.SetGlobal("fourply_analyze", L.NewFunction(luaCommand("analyze", (*ShellController).analyze)))
	L.SetGlobal("fourply_pv", L.NewFunction(luaCommand("pv", (*ShellController).pv)))
	L.SetGlobal("fourply_set", L.NewFunction(luaCommand("set", (*ShellController).set)))
	L.SetGlobal("fourply_solve", L.NewFunction(Solve))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
