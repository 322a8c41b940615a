package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/wispkv/wisp/internal/resp"
	"github.com/wispkv/wisp/internal/store"
)

const wrongTypeMsg = "WRONGTYPE Operation against a key holding the wrong kind of value"

func badArgsFor(cmd string) string {
	return "wrong number of arguments for '" + cmd + "' command"
}

// dispatch routes one already-framed command into db and appends its
// reply to out, returning the extended slice. args[0] is the command
// name; dispatch itself never returns an error — every failure mode is
// rendered as a RESP error reply, per spec.md §4.2 ("errors are
// per-command; they do not terminate the session").
func dispatch(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) == 0 {
		return resp.AppendError(out, "Command not recognised")
	}
	cmd := lowerCommand(args)
	switch cmd {
	case "ping":
		return resp.AppendSimpleString(out, "PONG")
	case "echo":
		if len(args) != 2 {
			return resp.AppendError(out, "Invalid args for ECHO")
		}
		return resp.AppendBulk(out, args[1])
	case "set":
		return dispatchSet(db, args, out)
	case "get":
		return dispatchGet(db, args, out)
	case "del":
		return dispatchDel(db, args, out)
	case "lpush":
		return dispatchPush(db, args, out, true)
	case "rpush":
		return dispatchPush(db, args, out, false)
	case "llen":
		return dispatchLLen(db, args, out)
	case "lrange":
		return dispatchLRange(db, args, out)
	case "lpop":
		return dispatchLPop(db, args, out)
	case "lindex":
		return dispatchLIndex(db, args, out)
	case "lrem":
		return dispatchLRem(db, args, out)
	case "lset":
		return dispatchLSet(db, args, out)
	case "hset":
		return dispatchHSet(db, args, out)
	case "qadd":
		return dispatchQAdd(db, args, out)
	case "qpop":
		return dispatchQPop(db, args, out)
	case "qlen":
		return dispatchQLen(db, args, out)
	default:
		return resp.AppendError(out, "Command not recognised")
	}
}

func dispatchSet(db *store.Store, args [][]byte, out []byte) []byte {
	switch len(args) {
	case 3:
		db.Set(string(args[1]), append([]byte(nil), args[2]...), time.Time{})
		return resp.AppendOK(out)
	case 5:
		if !strings.EqualFold(string(args[3]), "px") {
			return resp.AppendError(out, badArgsFor("set"))
		}
		millis, err := strconv.ParseInt(string(args[4]), 10, 64)
		if err != nil || millis < 0 {
			return resp.AppendError(out, badArgsFor("set"))
		}
		deadline := time.Now().Add(time.Duration(millis) * time.Millisecond)
		db.Set(string(args[1]), append([]byte(nil), args[2]...), deadline)
		return resp.AppendOK(out)
	default:
		return resp.AppendError(out, badArgsFor("set"))
	}
}

func dispatchGet(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 2 {
		return resp.AppendError(out, badArgsFor("get"))
	}
	v, ok, err := db.Get(string(args[1]))
	if err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	if !ok {
		return resp.AppendNullBulk(out)
	}
	return resp.AppendBulk(out, v)
}

func dispatchDel(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) < 2 {
		return resp.AppendError(out, badArgsFor("del"))
	}
	keys := make([]string, len(args)-1)
	for i, a := range args[1:] {
		keys[i] = string(a)
	}
	return resp.AppendInt(out, int64(db.Del(keys)))
}

func dispatchPush(db *store.Store, args [][]byte, out []byte, left bool) []byte {
	cmd := "rpush"
	if left {
		cmd = "lpush"
	}
	if len(args) < 3 {
		return resp.AppendError(out, badArgsFor(cmd))
	}
	var n int
	var err error
	if left {
		n, err = db.LPush(string(args[1]), args[2:])
	} else {
		n, err = db.RPush(string(args[1]), args[2:])
	}
	if err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	return resp.AppendInt(out, int64(n))
}

func dispatchLLen(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 2 {
		return resp.AppendError(out, badArgsFor("llen"))
	}
	n, err := db.LLen(string(args[1]))
	if err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	return resp.AppendInt(out, int64(n))
}

func dispatchLRange(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 4 {
		return resp.AppendError(out, badArgsFor("lrange"))
	}
	start, err1 := strconv.Atoi(string(args[2]))
	stop, err2 := strconv.Atoi(string(args[3]))
	if err1 != nil || err2 != nil {
		return resp.AppendError(out, "Invalid range")
	}
	items, err := db.LRange(string(args[1]), start, stop)
	if err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	return resp.AppendBulkArray(out, items)
}

func dispatchLPop(db *store.Store, args [][]byte, out []byte) []byte {
	switch len(args) {
	case 2:
		v, ok, err := db.LPopOne(string(args[1]))
		if err != nil {
			return resp.AppendError(out, wrongTypeMsg)
		}
		if !ok {
			return resp.AppendNullBulk(out)
		}
		return resp.AppendBulk(out, v)
	case 3:
		count, perr := strconv.Atoi(string(args[2]))
		if perr != nil || count < 0 {
			return resp.AppendError(out, badArgsFor("lpop"))
		}
		items, err := db.LPopN(string(args[1]), count)
		if errors.Is(err, store.ErrWrongType) {
			return resp.AppendError(out, wrongTypeMsg)
		}
		if err != nil {
			return resp.AppendError(out, badArgsFor("lpop"))
		}
		return resp.AppendBulkArray(out, items)
	default:
		return resp.AppendError(out, badArgsFor("lpop"))
	}
}

func dispatchLIndex(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 3 {
		return resp.AppendError(out, badArgsFor("lindex"))
	}
	idx, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.AppendError(out, badArgsFor("lindex"))
	}
	v, ok, serr := db.LIndex(string(args[1]), idx)
	if serr != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	if !ok {
		return resp.AppendNullBulk(out)
	}
	return resp.AppendBulk(out, v)
}

func dispatchLRem(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 4 {
		return resp.AppendError(out, badArgsFor("lrem"))
	}
	count, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.AppendError(out, badArgsFor("lrem"))
	}
	n, serr := db.LRem(string(args[1]), count, args[3])
	if serr != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	return resp.AppendInt(out, int64(n))
}

func dispatchLSet(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 4 {
		return resp.AppendError(out, badArgsFor("lset"))
	}
	idx, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return resp.AppendError(out, badArgsFor("lset"))
	}
	serr := db.LSet(string(args[1]), idx, args[3])
	switch {
	case errors.Is(serr, store.ErrWrongType):
		return resp.AppendError(out, wrongTypeMsg)
	case errors.Is(serr, store.ErrOutOfRange):
		return resp.AppendError(out, "index out of range")
	case serr != nil:
		return resp.AppendError(out, badArgsFor("lset"))
	}
	return resp.AppendOK(out)
}

func dispatchHSet(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) < 4 || (len(args)-2)%2 != 0 {
		return resp.AppendError(out, badArgsFor("hset"))
	}
	pairs := make([][2][]byte, 0, (len(args)-1)/2)
	for i := 2; i < len(args); i += 2 {
		pairs = append(pairs, [2][]byte{args[i], args[i+1]})
	}
	n, err := db.HSet(string(args[1]), pairs)
	if err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	return resp.AppendInt(out, int64(n))
}

func dispatchQAdd(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) < 3 {
		return resp.AppendError(out, badArgsFor("qadd"))
	}
	if err := db.QAdd(string(args[1]), args[2:]); err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	return resp.AppendOK(out)
}

func dispatchQPop(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 2 {
		return resp.AppendError(out, badArgsFor("qpop"))
	}
	v, ok, err := db.QPop(string(args[1]))
	if err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	if !ok {
		return resp.AppendNullBulk(out)
	}
	return resp.AppendBulk(out, v)
}

func dispatchQLen(db *store.Store, args [][]byte, out []byte) []byte {
	if len(args) != 2 {
		return resp.AppendError(out, badArgsFor("qlen"))
	}
	n, err := db.QLen(string(args[1]))
	if err != nil {
		return resp.AppendError(out, wrongTypeMsg)
	}
	return resp.AppendInt(out, int64(n))
}
