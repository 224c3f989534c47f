// Package detail renders one book and turns its cover into a shareable local artifact.
//
// [Presenter.Render] draws a card (title, author, year, cover reference) with lipgloss.
//
// [Presenter.PrepareShare] downloads the cover, decodes it, writes a PNG copy named share_image_<unix-millis>.png
// into the configured share directory and describes the hand-off as a [ShareAction] (action "send", MIME type
// "image/*", file:// URI). The action can be copied to the clipboard or opened with the system handler.
//
// Failures are [*shared.Failure] values: download errors are [shared.NetworkFailure], undecodable bytes are
// [shared.ParseFailure] and directory or file errors are [shared.IOFailure]. Books without a cover return
// [shared.ErrNoCover].
package detail
