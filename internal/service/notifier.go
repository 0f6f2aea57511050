package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"hospreq/internal/model"
	"hospreq/internal/repository"

	"github.com/google/uuid"
)

// FulfillmentGroupName is the fixed group notified when a request is approved
// and awaits fulfillment.
const FulfillmentGroupName = "Department: Informática"

// RoleRequester is the audience role label for the request's own submitter
const RoleRequester = "Solicitante"

// NotificationPusher delivers a payload to a connected user, best-effort.
// Satisfied by the websocket hub.
type NotificationPusher interface {
	Push(userID uuid.UUID, payload []byte)
}

// Notifier performs the notification fan-out after request state changes.
// All dispatch is best-effort: a failure for one recipient is logged and
// never aborts the transition nor the remaining recipients.
type Notifier interface {
	RequestUpdated(ctx context.Context, req *model.Request, actorID uuid.UUID)
	RequestApproved(ctx context.Context, req *model.Request, actorID uuid.UUID)
	RequestAccepted(ctx context.Context, req *model.Request, actorID uuid.UUID)
}

type notifier struct {
	notifications repository.NotificationRepository
	groups        repository.GroupRepository
	orgs          repository.OrganizationRepository
	pusher        NotificationPusher
	logger        *slog.Logger
}

func NewNotifier(
	notifications repository.NotificationRepository,
	groups repository.GroupRepository,
	orgs repository.OrganizationRepository,
	pusher NotificationPusher,
	logger *slog.Logger,
) Notifier {
	return &notifier{
		notifications: notifications,
		groups:        groups,
		orgs:          orgs,
		pusher:        pusher,
		logger:        logger,
	}
}

// notificationPayload is the opaque data stored with each notification
type notificationPayload struct {
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label"`
	Group         string `json:"group,omitempty"`
	Message       string `json:"message"`
}

// audienceMember is one resolved fan-out target with its role label
type audienceMember struct {
	recipient model.Recipient
	role      string
}

// RequestUpdated notifies the requester and every member of the request's
// destination groups, excluding the transitioning actor. Recipients reachable
// via multiple paths receive exactly one notification; the requester role
// label wins ties.
func (n *notifier) RequestUpdated(ctx context.Context, req *model.Request, actorID uuid.UUID) {
	seen := make(map[uuid.UUID]bool)
	var audience []audienceMember

	if req.RequesterID != nil && *req.RequesterID != actorID {
		seen[*req.RequesterID] = true
		audience = append(audience, audienceMember{
			recipient: model.UserRecipient(*req.RequesterID),
			role:      RoleRequester,
		})
	}

	destNames, err := destinationGroupNames(ctx, n.orgs, req)
	if err != nil {
		n.logger.Error("failed to resolve destination groups for fan-out",
			"request", req.RequestNumber, "error", err)
	}

	for _, name := range destNames {
		members, err := n.groups.ListUsersInGroup(ctx, name)
		if err != nil {
			n.logger.Error("failed to resolve group members for fan-out",
				"group", name, "request", req.RequestNumber, "error", err)
			continue
		}
		for _, member := range members {
			if member.ID == actorID || seen[member.ID] {
				continue
			}
			seen[member.ID] = true
			audience = append(audience, audienceMember{
				recipient: model.UserRecipient(member.ID),
				role:      name,
			})
		}
	}

	label := model.StatusLabel(req.Status)
	n.dispatch(ctx, model.NotifRequestUpdated, req, audience, func(m audienceMember) notificationPayload {
		p := notificationPayload{
			RequestID:     req.ID.String(),
			RequestNumber: req.RequestNumber,
			Status:        req.Status,
			StatusLabel:   label,
		}
		if m.role == RoleRequester {
			p.Message = fmt.Sprintf("O status da sua requisição (%s) foi atualizado para %s",
				req.RequestNumber, label)
		} else {
			p.Group = m.role
			p.Message = fmt.Sprintf("O status da requisição (%s) foi atualizado para %s no seu grupo (%s)",
				req.RequestNumber, label, m.role)
		}
		return p
	})
}

// RequestApproved notifies the fixed fulfillment group that the request now
// requires action. The group itself is the recipient.
func (n *notifier) RequestApproved(ctx context.Context, req *model.Request, actorID uuid.UUID) {
	group, err := n.groups.FindByName(ctx, FulfillmentGroupName)
	if err != nil {
		n.logger.Error("fulfillment group not found, skipping approval notification",
			"group", FulfillmentGroupName, "request", req.RequestNumber, "error", err)
		return
	}

	audience := []audienceMember{{
		recipient: model.GroupRecipient(group.ID),
		role:      group.Name,
	}}

	n.dispatch(ctx, model.NotifRequestApproved, req, audience, func(m audienceMember) notificationPayload {
		return notificationPayload{
			RequestID:     req.ID.String(),
			RequestNumber: req.RequestNumber,
			Status:        req.Status,
			StatusLabel:   model.StatusLabel(req.Status),
			Group:         m.role,
			Message:       fmt.Sprintf("A requisição (%s) foi aprovada e aguarda atendimento", req.RequestNumber),
		}
	})
}

// RequestAccepted notifies the requester and the approver that the request
// was fulfilled, excluding whichever of them performed the acceptance.
func (n *notifier) RequestAccepted(ctx context.Context, req *model.Request, actorID uuid.UUID) {
	seen := make(map[uuid.UUID]bool)
	var audience []audienceMember

	if req.RequesterID != nil && *req.RequesterID != actorID {
		seen[*req.RequesterID] = true
		audience = append(audience, audienceMember{
			recipient: model.UserRecipient(*req.RequesterID),
			role:      RoleRequester,
		})
	}
	if req.ApprovedBy != nil && *req.ApprovedBy != actorID && !seen[*req.ApprovedBy] {
		audience = append(audience, audienceMember{
			recipient: model.UserRecipient(*req.ApprovedBy),
			role:      "Aprovador",
		})
	}

	n.dispatch(ctx, model.NotifRequestAccepted, req, audience, func(m audienceMember) notificationPayload {
		return notificationPayload{
			RequestID:     req.ID.String(),
			RequestNumber: req.RequestNumber,
			Status:        req.Status,
			StatusLabel:   model.StatusLabel(req.Status),
			Message:       fmt.Sprintf("A requisição (%s) foi concluída", req.RequestNumber),
		}
	})
}

// dispatch persists one notification per audience member and pushes it to
// connected clients. Failures are logged per recipient; every recipient is
// attempted regardless of earlier failures.
func (n *notifier) dispatch(ctx context.Context, eventType string, req *model.Request, audience []audienceMember, payloadFor func(audienceMember) notificationPayload) {
	for _, member := range audience {
		data, err := json.Marshal(payloadFor(member))
		if err != nil {
			n.logger.Error("failed to encode notification payload",
				"type", eventType, "request", req.RequestNumber, "error", err)
			continue
		}

		record := &model.Notification{
			Type:           eventType,
			NotifiableID:   member.recipient.ID,
			NotifiableKind: member.recipient.Kind,
			Data:           string(data),
		}
		if err := n.notifications.Create(ctx, record); err != nil {
			n.logger.Error("failed to create notification",
				"type", eventType, "request", req.RequestNumber,
				"recipient", member.recipient.ID, "error", err)
			continue
		}

		if n.pusher != nil && member.recipient.Kind == model.NotifiableUser {
			n.pusher.Push(member.recipient.ID, data)
		}
	}
}
