package groupmeet

// Page is the backend's paginated envelope.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
	Size          int  `json:"size"`
	Number        int  `json:"number"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	Empty         bool `json:"empty"`
}

// Gender as stored on a profile.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderDivers Gender = "DIVERS"
)

// FriendshipStatus is the relation between the viewer and another user.
type FriendshipStatus string

const (
	FriendshipNone            FriendshipStatus = "NONE"
	FriendshipFriends         FriendshipStatus = "FRIENDS"
	FriendshipRequestSent     FriendshipStatus = "REQUEST_SENT"
	FriendshipRequestReceived FriendshipStatus = "REQUEST_RECEIVED"
)

// MessageResponse is the backend's generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthUser is the account returned by login and /me.
type AuthUser struct {
	ID        int64  `json:"id"`
	Gender    string `json:"gender"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	IsPro     bool   `json:"isPro"`
}

// LoginRequest authenticates with a username or an email address.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// RegistrationRequest creates an account.
type RegistrationRequest struct {
	Gender    Gender `json:"gender"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Friend is an accepted friendship.
type Friend struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
}

// FriendRequest is an incoming, not yet answered request.
type FriendRequest struct {
	RequestID       int64         `json:"requestId"`
	SenderID        int64         `json:"senderId"`
	SenderUsername  string        `json:"senderUsername"`
	SenderFirstName string        `json:"senderFirstName"`
	SenderLastName  string        `json:"senderLastName"`
	SenderAvatarURL *string       `json:"senderAvatarUrl"`
	RequestDate     LocalDateTime `json:"requestDate"`
}

// Meeting is a meetup ("group") as listed and created.
type Meeting struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Format           EventFormat   `json:"format"`
	MeetingTypeNames []string      `json:"meetingTypeNames"`
	Location         string        `json:"location"`
	DateTime         LocalDateTime `json:"dateTime"`
	ParticipantCount int           `json:"participantCount"`
	MaxParticipants  *int          `json:"maxParticipants"`
	CreatorUsername  string        `json:"creatorUsername"`
	CreatedAt        LocalDateTime `json:"createdAt"`
}

// MeetingPayload creates or updates a meeting.
type MeetingPayload struct {
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Format           EventFormat   `json:"format"`
	MeetingTypeNames []string      `json:"meetingTypeNames"`
	Location         string        `json:"location"`
	DateTime         LocalDateTime `json:"dateTime"`
	MaxParticipants  *int          `json:"maxParticipants,omitempty"`
}

// MembershipStatus is the viewer's relation to a meeting.
type MembershipStatus string

const (
	MembershipMember    MembershipStatus = "MEMBER"
	MembershipNotMember MembershipStatus = "NOT_MEMBER"
	MembershipPending   MembershipStatus = "PENDING"
)

// Participant is a member of a meeting.
type Participant struct {
	ID                  int64   `json:"id"`
	Username            string  `json:"username"`
	FirstName           string  `json:"firstName"`
	LastName            string  `json:"lastName"`
	AvatarURL           *string `json:"avatarUrl"`
	Gender              Gender  `json:"gender,omitempty"`
	IsOrganizer         bool    `json:"isOrganizer"`
	ParticipationStatus string  `json:"participationStatus,omitempty"`
}

// MeetingDetails is the full view of one meeting.
type MeetingDetails struct {
	ID                     int64            `json:"id"`
	Name                   string           `json:"name"`
	Description            string           `json:"description"`
	DateTime               LocalDateTime    `json:"dateTime"`
	Location               string           `json:"location"`
	Address                string           `json:"address"`
	Tags                   []string         `json:"tags"`
	Organizer              Participant      `json:"organizer"`
	ParticipantsPreview    []Participant    `json:"participantsPreview"`
	TotalParticipants      int              `json:"totalParticipants"`
	CurrentUserMembership  MembershipStatus `json:"currentUserMembership"`
	IsCurrentUserOrganizer bool             `json:"isCurrentUserOrganizer"`
}

// ParticipantsPage is one page of a meeting's participants.
type ParticipantsPage struct {
	ParticipantsPage       Page[Participant] `json:"participantsPage"`
	IsCurrentUserOrganizer bool              `json:"isCurrentUserOrganizer"`
	GroupName              string            `json:"groupName"`
}

// MeetingSearchParams filters meeting search. Zero values are omitted.
type MeetingSearchParams struct {
	Page       int
	Size       int
	SearchTerm string
	Types      []string
	Location   string
	Format     EventFormat
	StartDate  string
	EndDate    string
}

// UserSearchResult is one hit of a user search.
type UserSearchResult struct {
	ID               int64            `json:"id"`
	Username         string           `json:"username"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Gender           Gender           `json:"gender"`
	AvatarURL        *string          `json:"avatarUrl"`
	Location         *string          `json:"location"`
	Age              *int             `json:"age"`
	Interests        []string         `json:"interests"`
	FriendshipStatus FriendshipStatus `json:"friendshipStatus"`
}

// UserSearchParams filters user search. Zero values are omitted.
type UserSearchParams struct {
	Page       int
	Size       int
	SearchTerm string
	Genders    []Gender
	Location   string
	MinAge     int
	MaxAge     int
	Interests  []string
}

// Achievement is a badge on a profile.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconName    string `json:"iconName"`
}

// FriendSummary is a friend shown on a profile.
type FriendSummary struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
}

// UserProfile is a user's public profile as seen by the viewer.
type UserProfile struct {
	ID                         int64            `json:"id"`
	Username                   string           `json:"username"`
	FirstName                  string           `json:"firstName"`
	LastName                   string           `json:"lastName"`
	Gender                     Gender           `json:"gender"`
	AvatarURL                  *string          `json:"avatarUrl"`
	Location                   *string          `json:"location"`
	Age                        *int             `json:"age"`
	AboutMe                    string           `json:"aboutMe"`
	Interests                  []string         `json:"interests"`
	Achievements               []Achievement    `json:"achievements"`
	FriendshipStatusWithViewer FriendshipStatus `json:"friendshipStatusWithViewer"`
	RelatedFriendshipID        *int64           `json:"relatedFriendshipId"`
	FriendsCount               int              `json:"friendsCount"`
	FriendPreviews             []FriendSummary  `json:"friendPreviews"`
	PendingFriendRequestsCount *int             `json:"pendingFriendRequestsCount"`
	IsPro                      bool             `json:"isPro"`
}

// Option is a selectable value such as an interest or a location.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
