package fl

import "errors"

var ErrOverflow = errors.New("data size overflow during aggregation")
