package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/weberc2/blockfs/pkg/fs"
	"github.com/weberc2/blockfs/pkg/types"
)

const shellUsage = `commands:
  format               wipe and re-initialize the image
  mount                mount an existing image
  ls [path]            list a directory
  touch <path>         create an empty file
  mkdir <path>         create a directory
  rm <path>            delete a file
  rmdir <path>         delete a directory tree
  write <path> <text>  replace a file's contents
  read <path>          print a file's contents
  login <uid> <gid>    switch user
  logout               switch back to root
  whoami               print the current uid
  exit                 quit`

// runShell reads commands line by line and applies them to the filesystem.
// Errors are reported and the loop continues; only `exit` or end of input
// ends the session.
func runShell(fileSystem *fs.FileSystem, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" {
			return nil
		}
		if err := runCommand(fileSystem, fields, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func runCommand(
	fileSystem *fs.FileSystem,
	fields []string,
	out io.Writer,
) error {
	switch fields[0] {
	case "help":
		fmt.Fprintln(out, shellUsage)
		return nil
	case "format":
		return fileSystem.Format()
	case "mount":
		return fileSystem.Mount()
	case "ls":
		path := "/"
		if len(fields) > 1 {
			path = fields[1]
		}
		infos, err := fileSystem.ListDir(path)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Fprintf(
				out,
				"%s %5d %5d %s\n",
				types.PermString(info.Permissions, info.IsDir),
				info.UID,
				info.GID,
				info.Name,
			)
		}
		return nil
	case "touch":
		if len(fields) != 2 {
			return fmt.Errorf("usage: touch <path>")
		}
		return fileSystem.CreateFile(fields[1])
	case "mkdir":
		if len(fields) != 2 {
			return fmt.Errorf("usage: mkdir <path>")
		}
		return fileSystem.CreateDir(fields[1])
	case "rm":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rm <path>")
		}
		return fileSystem.DeleteFile(fields[1])
	case "rmdir":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rmdir <path>")
		}
		return fileSystem.DeleteDir(fields[1])
	case "write":
		if len(fields) < 3 {
			return fmt.Errorf("usage: write <path> <content...>")
		}
		content := strings.Join(fields[2:], " ")
		return fileSystem.WriteFile(fields[1], []byte(content))
	case "read":
		if len(fields) != 2 {
			return fmt.Errorf("usage: read <path>")
		}
		data, err := fileSystem.ReadFile(fields[1])
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return nil
	case "login":
		if len(fields) != 3 {
			return fmt.Errorf("usage: login <uid> <gid>")
		}
		uid, err := strconv.ParseUint(fields[1], 10, 16)
		if err != nil {
			return fmt.Errorf("parsing uid `%s`: %w", fields[1], err)
		}
		gid, err := strconv.ParseUint(fields[2], 10, 16)
		if err != nil {
			return fmt.Errorf("parsing gid `%s`: %w", fields[2], err)
		}
		fileSystem.Login(uint16(uid), uint16(gid))
		return nil
	case "logout":
		fileSystem.Logout()
		return nil
	case "whoami":
		fmt.Fprintf(out, "%d\n", fileSystem.CurrentUser())
		return nil
	default:
		return fmt.Errorf("unknown command `%s` (try `help`)", fields[0])
	}
}
