package domain

// Capability names one action class, e.g. "orders.update.status". Matching is
// exact; dots carry no hierarchy.
type Capability string

// CapabilityCustomerSelf is the implicit grant every customer principal holds.
const CapabilityCustomerSelf Capability = "customer.self"

// Back-office capabilities known out of the box.
const (
	CapabilityOrdersView         Capability = "orders.view"
	CapabilityOrdersEdit         Capability = "orders.edit"
	CapabilityOrdersUpdateStatus Capability = "orders.update.status"
	CapabilityProductsView       Capability = "products.view"
	CapabilityProductsEdit       Capability = "products.edit"
	CapabilityCouponsManage      Capability = "coupons.manage"
	CapabilityMessagesView       Capability = "messages.view"
	CapabilityMessagesReply      Capability = "messages.reply"
	CapabilityCustomersView      Capability = "customers.view"
	CapabilityStaffManage        Capability = "staff.manage"
	CapabilityUploadsCreate      Capability = "uploads.create"
)

// DefaultCapabilities lists the capabilities registered when no registry file is configured.
func DefaultCapabilities() []Capability {
	return []Capability{
		CapabilityOrdersView,
		CapabilityOrdersEdit,
		CapabilityOrdersUpdateStatus,
		CapabilityProductsView,
		CapabilityProductsEdit,
		CapabilityCouponsManage,
		CapabilityMessagesView,
		CapabilityMessagesReply,
		CapabilityCustomersView,
		CapabilityStaffManage,
		CapabilityUploadsCreate,
	}
}
