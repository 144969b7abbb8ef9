package wasip1

// ModuleName is the import module guests link host calls from.
const ModuleName = "wasi_snapshot_preview1"

// ValueType is a WebAssembly number type used in host call signatures.
type ValueType byte

const (
	I32 ValueType = iota
	I64
)

// Signature describes one host function of the import table.
type Signature struct {
	Name    string
	Params  []ValueType
	Results []ValueType
}

func sig(name string, params ...ValueType) Signature {
	return Signature{Name: name, Params: params, Results: []ValueType{I32}}
}

// Signatures enumerates every wasi_snapshot_preview1 function.
// All of them are defined on the import table so a guest linking any of
// them can be instantiated. Functions without a handler report ENOSYS.
var Signatures = []Signature{
	sig("args_get", I32, I32),
	sig("args_sizes_get", I32, I32),
	sig("environ_get", I32, I32),
	sig("environ_sizes_get", I32, I32),
	sig("clock_res_get", I32, I32),
	sig("clock_time_get", I32, I64, I32),
	sig("fd_advise", I32, I64, I64, I32),
	sig("fd_allocate", I32, I64, I64),
	sig("fd_close", I32),
	sig("fd_datasync", I32),
	sig("fd_fdstat_get", I32, I32),
	sig("fd_fdstat_set_flags", I32, I32),
	sig("fd_fdstat_set_rights", I32, I64, I64),
	sig("fd_filestat_get", I32, I32),
	sig("fd_filestat_set_size", I32, I64),
	sig("fd_filestat_set_times", I32, I64, I64, I32),
	sig("fd_pread", I32, I32, I32, I64, I32),
	sig("fd_prestat_get", I32, I32),
	sig("fd_prestat_dir_name", I32, I32, I32),
	sig("fd_pwrite", I32, I32, I32, I64, I32),
	sig("fd_read", I32, I32, I32, I32),
	sig("fd_readdir", I32, I32, I32, I64, I32),
	sig("fd_renumber", I32, I32),
	sig("fd_seek", I32, I64, I32, I32),
	sig("fd_sync", I32),
	sig("fd_tell", I32, I32),
	sig("fd_write", I32, I32, I32, I32),
	sig("path_create_directory", I32, I32, I32),
	sig("path_filestat_get", I32, I32, I32, I32, I32),
	sig("path_filestat_set_times", I32, I32, I32, I32, I64, I64, I32),
	sig("path_link", I32, I32, I32, I32, I32, I32, I32),
	sig("path_open", I32, I32, I32, I32, I32, I64, I64, I32, I32),
	sig("path_readlink", I32, I32, I32, I32, I32, I32),
	sig("path_remove_directory", I32, I32, I32),
	sig("path_rename", I32, I32, I32, I32, I32, I32),
	sig("path_symlink", I32, I32, I32, I32, I32),
	sig("path_unlink_file", I32, I32, I32),
	sig("poll_oneoff", I32, I32, I32, I32),
	{Name: "proc_exit", Params: []ValueType{I32}},
	sig("proc_raise", I32),
	sig("random_get", I32, I32),
	sig("sched_yield"),
	sig("sock_accept", I32, I32, I32),
	sig("sock_recv", I32, I32, I32, I32, I32, I32),
	sig("sock_send", I32, I32, I32, I32, I32),
	sig("sock_shutdown", I32, I32),
}
