// Package wasip1 implements wasi_snapshot_preview1 host calls on top of a
// wasmshim.Overlay. It is independent of the engine: engine bindings hand
// it the guest's linear memory and raw parameters.
package wasip1

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/guregu/wasmshim"
	"github.com/guregu/wasmshim/libc"
)

// ExitError is returned by Call when the guest calls proc_exit.
// Engine bindings must unwind the guest when they see it.
type ExitError struct {
	Code uint32
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

type handler func(h *Host, mem []byte, p []uint64) (libc.Errno, error)

var handlers = map[string]handler{
	"args_get":              (*Host).argsGet,
	"args_sizes_get":        (*Host).argsSizesGet,
	"environ_get":           (*Host).environGet,
	"environ_sizes_get":     (*Host).environSizesGet,
	"clock_res_get":         (*Host).clockResGet,
	"clock_time_get":        (*Host).clockTimeGet,
	"fd_close":              (*Host).fdClose,
	"fd_datasync":           (*Host).fdSync,
	"fd_fdstat_get":         (*Host).fdFdstatGet,
	"fd_fdstat_set_flags":   (*Host).fdFdstatSetFlags,
	"fd_filestat_get":       (*Host).fdFilestatGet,
	"fd_filestat_set_size":  (*Host).fdFilestatSetSize,
	"fd_prestat_get":        (*Host).fdPrestatGet,
	"fd_prestat_dir_name":   (*Host).fdPrestatGet,
	"fd_read":               (*Host).fdRead,
	"fd_seek":               (*Host).fdSeek,
	"fd_sync":               (*Host).fdSync,
	"fd_write":              (*Host).fdWrite,
	"path_create_directory": (*Host).pathCreateDirectory,
	"path_filestat_get":     (*Host).pathFilestatGet,
	"path_open":             (*Host).pathOpen,
	"path_readlink":         (*Host).pathReadlink,
	"path_remove_directory": (*Host).pathRemoveDirectory,
	"path_rename":           (*Host).pathRename,
	"path_unlink_file":      (*Host).pathUnlinkFile,
	"proc_exit":             (*Host).procExit,
	"random_get":            (*Host).randomGet,
	"sched_yield":           (*Host).schedYield,
}

// Host answers host calls from one guest runtime.
type Host struct {
	ov    *wasmshim.Overlay
	log   *zap.Logger
	start time.Time

	mu       sync.Mutex
	exitCode uint32
	exited   bool
}

// NewHost returns a host resolving calls against ov.
func NewHost(ov *wasmshim.Overlay) *Host {
	return &Host{
		ov:    ov,
		log:   ov.Logger().Named(ModuleName),
		start: ov.Clock().Now(),
	}
}

// Implemented reports whether name has a handler. Other names always return ENOSYS.
func Implemented(name string) bool {
	_, ok := handlers[name]
	return ok
}

// Call runs the host function name. mem is the guest's linear memory and
// may be nil if the guest exports none. A non-nil error means the guest
// must be trapped: either an *ExitError or a fault from the logger.
func (h *Host) Call(name string, mem []byte, params []uint64) (libc.Errno, error) {
	fn, ok := handlers[name]
	if !ok {
		h.trace(name, params, libc.ErrnoNosys)
		return libc.ErrnoNosys, nil
	}
	errno, err := fn(h, mem, params)
	h.trace(name, params, errno)
	return errno, err
}

// Reset forgets the exit status of the previous run.
func (h *Host) Reset() {
	h.mu.Lock()
	h.exitCode, h.exited = 0, false
	h.mu.Unlock()
}

// Exited reports whether the guest called proc_exit since the last Reset.
func (h *Host) Exited() (code int, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int(h.exitCode), h.exited
}

func (h *Host) trace(name string, params []uint64, errno libc.Errno) {
	if ce := h.log.Check(zap.DebugLevel, name); ce != nil {
		ce.Write(zap.Uint64s("params", params), zap.Int32("errno", errno))
	}
}

// result converts an overlay error into an errno.
// Errors the guest cannot be told about, like a failing logger, trap it.
func result(err error) (libc.Errno, error) {
	var sf segfault
	if errors.As(err, &sf) {
		return libc.ErrnoFault, nil
	}
	if errno := libc.Error(err); errno != libc.ErrnoIo {
		return errno, nil
	}
	return 0, err
}

func fd(p uint64) int {
	return int(int32(p))
}

func ptr(p uint64) libc.Ptr {
	return libc.Ptr(p)
}

func (h *Host) argsSizesGet(mem []byte, p []uint64) (libc.Errno, error) {
	args := charbuffer(h.ov.Process().Argv())
	return result(args.writeSizes(mem, ptr(p[0]), ptr(p[1])))
}

func (h *Host) argsGet(mem []byte, p []uint64) (libc.Errno, error) {
	args := charbuffer(h.ov.Process().Argv())
	return result(args.write(mem, ptr(p[0]), ptr(p[1])))
}

func (h *Host) environSizesGet(mem []byte, p []uint64) (libc.Errno, error) {
	env := environ(h.ov.Process().Env())
	return result(env.writeSizes(mem, ptr(p[0]), ptr(p[1])))
}

func (h *Host) environGet(mem []byte, p []uint64) (libc.Errno, error) {
	env := environ(h.ov.Process().Env())
	return result(env.write(mem, ptr(p[0]), ptr(p[1])))
}

func (h *Host) clockResGet(mem []byte, p []uint64) (libc.Errno, error) {
	switch libc.Clockid(p[0]) {
	case libc.ClockRealtime, libc.ClockMonotonic:
	default:
		return libc.ErrnoInval, nil
	}
	return result(putUint64(mem, ptr(p[1]), 1))
}

func (h *Host) clockTimeGet(mem []byte, p []uint64) (libc.Errno, error) {
	now := h.ov.Clock().Now()
	var ts int64
	switch libc.Clockid(p[0]) {
	case libc.ClockRealtime:
		ts = now.UnixNano()
	case libc.ClockMonotonic:
		ts = int64(now.Sub(h.start))
	default:
		return libc.ErrnoInval, nil
	}
	return result(putUint64(mem, ptr(p[2]), uint64(ts)))
}

func (h *Host) randomGet(mem []byte, p []uint64) (libc.Errno, error) {
	buf, err := span(mem, ptr(p[0]), ptr(p[1]))
	if err != nil {
		return result(err)
	}
	if _, err := io.ReadFull(h.ov.Random(), buf); err != nil {
		return libc.ErrnoIo, nil
	}
	return libc.ErrnoSuccess, nil
}

func (h *Host) fdWrite(mem []byte, p []uint64) (libc.Errno, error) {
	return h.transfer(mem, p, h.ov.FS().Write)
}

func (h *Host) fdRead(mem []byte, p []uint64) (libc.Errno, error) {
	return h.transfer(mem, p, h.ov.FS().Read)
}

// transfer runs op over each iovec of a fd_write or fd_read call and stores
// the byte count. The guest's memory is handed to op whole, with the iovec
// giving the offset and length.
func (h *Host) transfer(mem []byte, p []uint64, op func(fd int, buf []byte, offset, length int, position *int64) (int, error)) (libc.Errno, error) {
	no, iovs, iovslen, retptr := fd(p[0]), ptr(p[1]), ptr(p[2]), ptr(p[3])
	if _, err := h.ov.FS().Fstat(no); err != nil {
		return result(err)
	}
	if err := ensure(mem, uint64(iovs)+uint64(iovslen)*libc.IovecSize, uint64(retptr)+libc.PtrSize); err != nil {
		return result(err)
	}
	vecs := mem[iovs:]

	var total libc.Size
	for i := libc.Size(0); i < iovslen; i++ {
		vec := libc.DecodeIovec(vecs[i*libc.IovecSize:])
		if err := ensure(mem, uint64(vec.Buf)+uint64(vec.Len)); err != nil {
			return result(err)
		}
		n, err := op(no, mem, int(vec.Buf), int(vec.Len), nil)
		total += libc.Size(n)
		if err != nil {
			return result(err)
		}
	}
	return result(putUint32(mem, retptr, total))
}

func (h *Host) fdClose(_ []byte, p []uint64) (libc.Errno, error) {
	return result(h.ov.FS().Close(fd(p[0])))
}

func (h *Host) fdSync(_ []byte, p []uint64) (libc.Errno, error) {
	return result(h.ov.FS().Fsync(fd(p[0])))
}

func (h *Host) fdFilestatSetSize(_ []byte, p []uint64) (libc.Errno, error) {
	return result(h.ov.FS().Ftruncate(fd(p[0]), int64(p[1])))
}

func (h *Host) fdFdstatGet(mem []byte, p []uint64) (libc.Errno, error) {
	info, err := h.ov.FS().Fstat(fd(p[0]))
	if err != nil {
		return result(err)
	}
	buf, err := span(mem, ptr(p[1]), libc.FdstatSize)
	if err != nil {
		return result(err)
	}
	stat := libc.Fdstat{
		Filetype:   filetype(info.Mode()),
		RightsBase: libc.RightFdWrite | libc.RightFdFilestatGet,
	}
	stat.Encode(buf)
	return libc.ErrnoSuccess, nil
}

func (h *Host) fdFdstatSetFlags(_ []byte, p []uint64) (libc.Errno, error) {
	_, err := h.ov.FS().Fstat(fd(p[0]))
	return result(err)
}

func (h *Host) fdFilestatGet(mem []byte, p []uint64) (libc.Errno, error) {
	info, err := h.ov.FS().Fstat(fd(p[0]))
	if err != nil {
		return result(err)
	}
	return result(writeFilestat(mem, ptr(p[1]), info))
}

// fdPrestatGet reports that there are no preopened directories,
// which ends the guest's preopen scan at startup.
func (h *Host) fdPrestatGet(_ []byte, _ []uint64) (libc.Errno, error) {
	return libc.ErrnoBadf, nil
}

func (h *Host) fdSeek(_ []byte, p []uint64) (libc.Errno, error) {
	if _, err := h.ov.FS().Fstat(fd(p[0])); err != nil {
		return result(err)
	}
	return libc.ErrnoSpipe, nil
}

func (h *Host) pathOpen(mem []byte, p []uint64) (libc.Errno, error) {
	path, err := readString(mem, ptr(p[2]), ptr(p[3]))
	if err != nil {
		return result(err)
	}
	no, err := h.ov.FS().Open(path, int(p[4]), 0)
	if err != nil {
		return result(err)
	}
	return result(putUint32(mem, ptr(p[8]), uint32(no)))
}

func (h *Host) pathFilestatGet(mem []byte, p []uint64) (libc.Errno, error) {
	path, err := readString(mem, ptr(p[2]), ptr(p[3]))
	if err != nil {
		return result(err)
	}
	stat := h.ov.FS().Lstat
	if p[1]&1 != 0 { // symlink follow
		stat = h.ov.FS().Stat
	}
	info, err := stat(path)
	if err != nil {
		return result(err)
	}
	return result(writeFilestat(mem, ptr(p[4]), info))
}

func (h *Host) pathCreateDirectory(mem []byte, p []uint64) (libc.Errno, error) {
	path, err := readString(mem, ptr(p[1]), ptr(p[2]))
	if err != nil {
		return result(err)
	}
	return result(h.ov.FS().Mkdir(path, 0o777))
}

func (h *Host) pathRemoveDirectory(mem []byte, p []uint64) (libc.Errno, error) {
	path, err := readString(mem, ptr(p[1]), ptr(p[2]))
	if err != nil {
		return result(err)
	}
	return result(h.ov.FS().Rmdir(path))
}

func (h *Host) pathUnlinkFile(mem []byte, p []uint64) (libc.Errno, error) {
	path, err := readString(mem, ptr(p[1]), ptr(p[2]))
	if err != nil {
		return result(err)
	}
	return result(h.ov.FS().Unlink(path))
}

func (h *Host) pathRename(mem []byte, p []uint64) (libc.Errno, error) {
	from, err := readString(mem, ptr(p[1]), ptr(p[2]))
	if err != nil {
		return result(err)
	}
	to, err := readString(mem, ptr(p[4]), ptr(p[5]))
	if err != nil {
		return result(err)
	}
	return result(h.ov.FS().Rename(from, to))
}

func (h *Host) pathReadlink(mem []byte, p []uint64) (libc.Errno, error) {
	path, err := readString(mem, ptr(p[1]), ptr(p[2]))
	if err != nil {
		return result(err)
	}
	link, err := h.ov.FS().Readlink(path)
	if err != nil {
		return result(err)
	}
	buf, err := span(mem, ptr(p[3]), ptr(p[4]))
	if err != nil {
		return result(err)
	}
	n := copy(buf, link)
	return result(putUint32(mem, ptr(p[5]), uint32(n)))
}

func (h *Host) procExit(_ []byte, p []uint64) (libc.Errno, error) {
	code := uint32(p[0])
	h.mu.Lock()
	h.exitCode, h.exited = code, true
	h.mu.Unlock()
	h.ov.Process().Exit(int(code))
	return libc.ErrnoSuccess, &ExitError{Code: code}
}

func (h *Host) schedYield(_ []byte, _ []uint64) (libc.Errno, error) {
	return libc.ErrnoSuccess, nil
}

func writeFilestat(mem []byte, retptr libc.Ptr, info fs.FileInfo) error {
	buf, err := span(mem, retptr, libc.FilestatSize)
	if err != nil {
		return err
	}
	stat := libc.Filestat{
		Filetype: filetype(info.Mode()),
		Nlink:    1,
		Size:     uint64(info.Size()),
		Mtim:     uint64(info.ModTime().UnixNano()),
	}
	stat.Encode(buf)
	return nil
}

func filetype(mode fs.FileMode) libc.Filetype {
	switch {
	case mode&fs.ModeCharDevice != 0:
		return libc.FiletypeCharacterDevice
	case mode.IsDir():
		return libc.FiletypeDirectory
	case mode.IsRegular():
		return libc.FiletypeRegularFile
	}
	return libc.FiletypeUnknown
}
