// Package protocol implements the Pusher wire layer: parsing inbound frames,
// routing control vs client events, the failure taxonomy and its mapping to
// outbound error frames. Nothing here touches a live connection.
package protocol
