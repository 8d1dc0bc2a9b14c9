/*
Package cli provides helpers shared by the quotegate commands.

Output Formatting:

Commands print results as text or JSON, chosen by --output:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Values implementing Table are printed as aligned columns in text mode.

Progress Reporting:

Batch submissions report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(requests)))
	for _, req := range requests {
		_, err := b.Submit(ctx, req)
		progress.Advance(err)
	}
	progress.Finish()

Exit Codes:

ExitCode maps command errors to process exit codes. Submission failures
are classified by bridge.StatusOf, so a rejected request (3) is
distinguishable from a busy (4), slow (5) or failing (6) engine.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
