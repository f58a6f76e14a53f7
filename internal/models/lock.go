package models

// OTPGrant is a PIN issued by the lock vendor. Validity bounds are epoch
// seconds as echoed by the vendor.
type OTPGrant struct {
	OTP            string `json:"otp"`
	ValidStartTime int64  `json:"validStartTime"`
	ValidEndTime   int64  `json:"validEndTime"`
}

// LockDevice is one entry of the vendor's lock directory
type LockDevice struct {
	Name     string     `json:"name"`
	DeviceID FlexString `json:"device_id"`
}

// Vendor response envelopes

type LockTokenResponse struct {
	Message struct {
		AccessToken string `json:"access_token"`
	} `json:"message"`
}

type LockListResponse struct {
	Message struct {
		LocksList []LockDevice `json:"locks_list"`
	} `json:"message"`
}

type LockPinResponse struct {
	Message struct {
		Data struct {
			OTP            FlexString `json:"otp"`
			ValidStartTime FlexString `json:"validStartTime"`
			ValidEndTime   FlexString `json:"validEndTime"`
		} `json:"data"`
	} `json:"message"`
}

// ManualOTPRequest drives the debug endpoint that issues a PIN for one room
type ManualOTPRequest struct {
	RoomNo    string `json:"room_no"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
}
