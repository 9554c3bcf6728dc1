package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconBell     = ""
	IconHeart    = ""
	IconHeartOff = ""
	IconPlay     = ""
	IconPause    = ""
	IconMuted    = ""
	IconVolume   = ""
	IconRetry    = ""
	IconDot      = "●"
	IconSpinner  = ""
)
