package models

type RoomStatus string

const (
	RoomFree     RoomStatus = "free"
	RoomReserved RoomStatus = "reserved"
	RoomOccupied RoomStatus = "occupied"
)

func (s RoomStatus) Valid() bool {
	return s == RoomFree || s == RoomReserved || s == RoomOccupied
}

type Room struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Capacity   int        `json:"capacity"`
	Facilities []string   `json:"facilities"`
	Status     RoomStatus `json:"status"`
}

// DefaultRooms seeds an empty rooms collection.
var DefaultRooms = []Room{
	{ID: "A-101", Name: "Classroom A-101", Capacity: 40, Facilities: []string{"Projector"}, Status: RoomFree},
	{ID: "B-207", Name: "Lab B-207", Capacity: 30, Facilities: []string{"Computers", "WiFi"}, Status: RoomReserved},
	{ID: "H-101", Name: "Seminar Hall A", Capacity: 120, Facilities: []string{"Projector", "Audio System"}, Status: RoomFree},
}
