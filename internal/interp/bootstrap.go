// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package interp

// pythonBootstrap is the program run as `python3 -u -c <bootstrap>`. It
// reads one JSON request per stdin line and writes one JSON response per
// stdout line. Globals persist across executions; variables are reported
// as name -> type-name summaries.
const pythonBootstrap = `
import json, sys, io, traceback, types

GLOBALS = {}

def snapshot():
    out = {}
    for name, value in GLOBALS.items():
        if name.startswith("__"):
            continue
        if isinstance(value, (types.ModuleType, types.FunctionType, type)):
            if isinstance(value, types.ModuleType):
                continue
        out[name] = type(value).__name__
    return out

def run(code):
    buf = io.StringIO()
    old_out, old_err = sys.stdout, sys.stderr
    sys.stdout = sys.stderr = buf
    errors = []
    try:
        exec(compile(code, "<session>", "exec"), GLOBALS)
        ok = True
    except Exception:
        errors = traceback.format_exc().strip().splitlines()
        ok = False
    finally:
        sys.stdout, sys.stderr = old_out, old_err
    return {"success": ok, "output": buf.getvalue(), "errors": errors,
            "variables": snapshot()}

for line in sys.stdin:
    line = line.strip()
    if not line:
        continue
    try:
        req = json.loads(line)
    except ValueError:
        continue
    rid = req.get("id", "")
    method = req.get("method", "")
    if method == "execute":
        resp = {"id": rid, "result": run(req.get("params", {}).get("code", ""))}
    elif method == "vars":
        resp = {"id": rid, "result": {"success": True, "output": "",
                "errors": [], "variables": snapshot()}}
    elif method == "ping":
        resp = {"id": rid, "result": {"success": True, "output": "pong",
                "errors": [], "variables": {}}}
    else:
        resp = {"id": rid, "error": {"message": "unknown method: " + method}}
    sys.stdout.write(json.dumps(resp) + "\n")
    sys.stdout.flush()
`
