// Package zipp builds ZIP archives from files and directories.
//
// A Builder resolves its file and directory arguments into a deduplicated list of regular files (see Resolve), then
// adds each file to the archive either sequentially or concurrently, logging one line per file:
//
//	b, err := zipp.New("archive.zip", option.Of(option.Recursive, option.Parallel))
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//
//	if _, err = b.AddFiles(ctx, []string{"my-dir", "a.txt"}); err != nil {
//		return err
//	}
//
//	return b.Close()
//
// Files that cannot be read do not fail the build; they are reported in their Outcome instead.
package zipp
