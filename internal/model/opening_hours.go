package model

// OpeningHours records the service window of a restaurant for a single
// weekday.  Times are stored as minutes since midnight in the service
// timezone, which keeps slot arithmetic free of parsing and timezone
// concerns.  A closed day is marked explicitly rather than encoded as
// a degenerate interval.
//
// Fields:
//  RestaurantID – restaurant the hours belong to.
//  Weekday      – day of week (0 = Sunday … 6 = Saturday, matching time.Weekday).
//  OpenMinute   – opening time as minutes since midnight.
//  CloseMinute  – closing time as minutes since midnight; always > OpenMinute when open.
//  IsClosed     – true when the restaurant does not open on this weekday.
type OpeningHours struct {
	RestaurantID uint64 // opening_hours.restaurant_id
	Weekday      int    // opening_hours.weekday
	OpenMinute   int    // opening_hours.open_minute
	CloseMinute  int    // opening_hours.close_minute
	IsClosed     bool   // opening_hours.is_closed
}
