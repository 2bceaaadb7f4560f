/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

// builtins lists Node core modules that may be imported without the node: prefix.
var builtins = map[string]struct{}{
	"_http_agent": {}, "_http_client": {}, "_http_common": {},
	"_http_incoming": {}, "_http_outgoing": {}, "_http_server": {},
	"_stream_duplex": {}, "_stream_passthrough": {}, "_stream_readable": {},
	"_stream_transform": {}, "_stream_wrap": {}, "_stream_writable": {},
	"_tls_common": {}, "_tls_wrap": {},
	"assert": {}, "assert/strict": {}, "async_hooks": {}, "buffer": {},
	"child_process": {}, "cluster": {}, "console": {}, "constants": {},
	"crypto": {}, "dgram": {}, "diagnostics_channel": {}, "dns": {},
	"dns/promises": {}, "domain": {}, "events": {}, "fs": {},
	"fs/promises": {}, "http": {}, "http2": {}, "https": {},
	"inspector": {}, "module": {}, "net": {}, "os": {}, "path": {},
	"path/posix": {}, "path/win32": {}, "perf_hooks": {}, "process": {},
	"punycode": {}, "querystring": {}, "readline": {}, "repl": {},
	"stream": {}, "stream/consumers": {}, "stream/promises": {},
	"stream/web": {}, "string_decoder": {}, "sys": {}, "timers": {},
	"timers/promises": {}, "tls": {}, "trace_events": {}, "tty": {},
	"url": {}, "util": {}, "util/types": {}, "v8": {}, "vm": {},
	"wasi": {}, "worker_threads": {}, "zlib": {},
}

// IsBuiltin returns true if request names a Node core module.
func IsBuiltin(request string) bool {
	_, ok := builtins[request]
	return ok
}
